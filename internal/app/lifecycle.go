package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

// RecordLifecycle couples the relay's disconnect handling to the session
// record store: a customer leaving mid-session invalidates the request
// rather than leaving it dangling. Completed records are kept.
type RecordLifecycle struct {
	store  core.SessionStore
	events core.EventSink
}

func NewRecordLifecycle(store core.SessionStore, events core.EventSink) *RecordLifecycle {
	return &RecordLifecycle{store: store, events: events}
}

func (l *RecordLifecycle) OnCustomerLeft(ctx context.Context, roomID string) {
	status, err := l.store.Status(ctx, roomID)
	if errors.Is(err, core.ErrSessionNotFound) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "app.lifecycle").Str("room", roomID).Msg("status lookup failed")
		return
	}
	if status == domain.StatusCompleted {
		return
	}
	if err := l.store.Delete(ctx, roomID); err != nil {
		log.Warn().Err(err).Str("module", "app.lifecycle").Str("room", roomID).Msg("record delete failed")
		return
	}
	log.Info().Str("module", "app.lifecycle").Str("room", roomID).Str("status", string(status)).Msg("session record invalidated on customer departure")
	if l.events != nil {
		ev := core.Event{Type: core.EventSessionDeleted, RoomID: roomID, Status: status, Timestamp: time.Now().UTC()}
		if err := l.events.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Str("module", "app.lifecycle").Msg("event publish failed")
		}
	}
}
