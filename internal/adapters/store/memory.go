// Package store provides the session-record store backends.
package store

import (
	"context"
	"sync"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

// MemoryStore is the in-process twin of the redis backend, used in dev
// mode and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.SessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.SessionRecord)}
}

func (s *MemoryStore) Create(_ context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.RoomID]; ok {
		return core.ErrSessionExists
	}
	s.records[rec.RoomID] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, roomID string) (domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[roomID]
	if !ok {
		return domain.SessionRecord{}, core.ErrSessionNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Exists(ctx context.Context, roomID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[roomID]
	return ok, nil
}

func (s *MemoryStore) Status(ctx context.Context, roomID string) (domain.SessionStatus, error) {
	rec, err := s.Get(ctx, roomID)
	if err != nil {
		return "", err
	}
	return rec.Status, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, roomID string, status domain.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[roomID]
	if !ok {
		return core.ErrSessionNotFound
	}
	rec.Status = status
	s.records[roomID] = rec
	return nil
}

func (s *MemoryStore) SetAgent(_ context.Context, roomID, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[roomID]
	if !ok {
		return core.ErrSessionNotFound
	}
	rec.AgentID = agentID
	s.records[roomID] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[roomID]; !ok {
		return core.ErrSessionNotFound
	}
	delete(s.records, roomID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SessionRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}
