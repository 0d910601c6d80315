// Package core declares the contracts between the relay core and its
// adapters (transport, persistence, auth, eventing).
package core

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/finvue/vkyc/internal/domain"
)

// PeerConn is one accepted transport leg, owned by the room slot that
// holds it. The owning adapter must Close() it.
type PeerConn interface {
	// TrySend queues data for delivery without blocking. Delivery is
	// best-effort; a backpressure or closed-connection error is the
	// caller's signal to drop the message.
	TrySend(data []byte) error
	Close()
	// CloseWithStatus sends a close frame with the given status code
	// before tearing the connection down.
	CloseWithStatus(code int, reason string)
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// SessionStore persists service-request records keyed by room id.
type SessionStore interface {
	Create(ctx context.Context, rec domain.SessionRecord) error
	Get(ctx context.Context, roomID string) (domain.SessionRecord, error)
	Exists(ctx context.Context, roomID string) (bool, error)
	Status(ctx context.Context, roomID string) (domain.SessionStatus, error)
	SetStatus(ctx context.Context, roomID string, status domain.SessionStatus) error
	SetAgent(ctx context.Context, roomID, agentID string) error
	Delete(ctx context.Context, roomID string) error
	List(ctx context.Context) ([]domain.SessionRecord, error)
}

// SessionLifecycle is the narrow hook the relay invokes when a customer
// leg goes away; it keeps the relay decoupled from persistence details.
type SessionLifecycle interface {
	OnCustomerLeft(ctx context.Context, roomID string)
}

// Event types published to the lifecycle stream.
const (
	EventSessionRequested = "session-requested"
	EventSessionDecided   = "session-decided"
	EventSessionDeleted   = "session-deleted"
	EventPeerJoined       = "peer-joined"
	EventPeerLeft         = "peer-left"
)

type Event struct {
	Type      string               `json:"type"`
	RoomID    string               `json:"room_id"`
	Role      domain.Role          `json:"role,omitempty"`
	ClientID  string               `json:"client_id,omitempty"`
	Status    domain.SessionStatus `json:"status,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// EventSink receives lifecycle events. Publish failures are logged by the
// caller and never propagate into the relay path.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

var ErrAuthenticationFailed = errors.New("authentication failed")

// Identity is the result of resolving a join credential.
type Identity struct {
	Role      domain.Role
	SubjectID string
}

// IdentityResolver maps the join request's query parameters to an identity,
// or fails with ErrAuthenticationFailed.
type IdentityResolver interface {
	Resolve(q url.Values) (Identity, error)
}
