package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

const keyPrefix = "kyc:session:"

// RedisStore keeps one JSON-encoded record per room id.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client}
}

func key(roomID string) string { return keyPrefix + roomID }

func (s *RedisStore) Create(ctx context.Context, rec domain.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, key(rec.RoomID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrSessionExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, roomID string) (domain.SessionRecord, error) {
	data, err := s.client.Get(ctx, key(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionRecord{}, core.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionRecord{}, err
	}
	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.SessionRecord{}, err
	}
	return rec, nil
}

func (s *RedisStore) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := s.client.Exists(ctx, key(roomID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Status(ctx context.Context, roomID string) (domain.SessionStatus, error) {
	rec, err := s.Get(ctx, roomID)
	if err != nil {
		return "", err
	}
	return rec.Status, nil
}

func (s *RedisStore) SetStatus(ctx context.Context, roomID string, status domain.SessionStatus) error {
	return s.update(ctx, roomID, func(rec *domain.SessionRecord) {
		rec.Status = status
	})
}

func (s *RedisStore) SetAgent(ctx context.Context, roomID, agentID string) error {
	return s.update(ctx, roomID, func(rec *domain.SessionRecord) {
		rec.AgentID = agentID
	})
}

// update runs a read-modify-write inside a WATCH transaction so two
// concurrent mutations of the same record cannot lose writes.
func (s *RedisStore) update(ctx context.Context, roomID string, mutate func(*domain.SessionRecord)) error {
	k := key(roomID)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return core.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var rec domain.SessionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		mutate(&rec)
		out, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, out, 0)
			return nil
		})
		return err
	}, k)
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	n, err := s.client.Del(ctx, key(roomID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]domain.SessionRecord, error) {
	var out []domain.SessionRecord
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec domain.SessionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
