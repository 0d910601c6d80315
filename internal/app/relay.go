package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

// ErrSessionClosed signals that the sender asked to end its own leg; the
// transport loop should stop reading and run the normal close path.
var ErrSessionClosed = errors.New("session closed by client")

// Relay routes signaling traffic between the two slots of a room and
// drives the registry/lifecycle side effects on admission and departure.
type Relay struct {
	rooms     *RoomRegistry
	lifecycle core.SessionLifecycle
	events    core.EventSink
}

func NewRelay(rooms *RoomRegistry, lifecycle core.SessionLifecycle, events core.EventSink) *Relay {
	return &Relay{rooms: rooms, lifecycle: lifecycle, events: events}
}

// Peer is one admitted connection. It is created by Admit and must be
// closed exactly once; Close is safe to call from racing causes.
type Peer struct {
	relay *Relay

	RoomID   string
	Role     domain.Role
	ClientID string

	conn core.PeerConn
	once sync.Once
}

// Admit authenticates nothing; the caller resolved identity already. It
// asks the registry for the slot and, if the opposite peer was already
// there, notifies it synchronously before any relaying starts.
func (r *Relay) Admit(ctx context.Context, roomID string, role domain.Role, clientID string, conn core.PeerConn) (*Peer, error) {
	peerPresent, err := r.rooms.Admit(roomID, role, conn)
	if err != nil {
		return nil, err
	}
	p := &Peer{relay: r, RoomID: roomID, Role: role, ClientID: clientID, conn: conn}
	if peerPresent {
		r.deliver(roomID, role, domain.SystemMessage(domain.KindPeerJoined, role, clientID))
	}
	r.publish(ctx, core.Event{Type: core.EventPeerJoined, RoomID: roomID, Role: role, ClientID: clientID})
	return p, nil
}

// Dispatch routes one inbound message. A non-nil error means the sender's
// connection must be closed (malformed payload or an explicit close); all
// delivery failures toward the peer stay contained here.
func (p *Peer) Dispatch(data []byte) error {
	env, err := domain.DecodeEnvelope(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("room", p.RoomID).Str("role", string(p.Role)).Msg("dropping connection on malformed message")
		return err
	}

	switch {
	case env.Kind == domain.KindChat:
		stamped := env.Stamp(p.Role, p.ClientID)
		for _, conn := range p.relay.rooms.Others(p.RoomID, p.Role) {
			if err := conn.TrySend(stamped); err != nil {
				log.Warn().Err(err).Str("module", "app.relay").Str("room", p.RoomID).Msg("chat delivery failed")
			}
		}
		return nil
	case env.Kind.Forwardable():
		p.relay.deliver(p.RoomID, p.Role, env.Stamp(p.Role, p.ClientID))
		if env.Kind == domain.KindCloseSession {
			return ErrSessionClosed
		}
		return nil
	default:
		// Unknown kinds are ignored so protocol additions never
		// break older relays.
		log.Debug().Str("module", "app.relay").Str("kind", string(env.Kind)).Msg("ignoring unknown message kind")
		return nil
	}
}

// Close releases the slot, tells the surviving peer to tear down, and runs
// the customer-departure hook. It runs its body at most once.
func (p *Peer) Close(ctx context.Context) {
	p.once.Do(func() {
		p.relay.rooms.Release(p.RoomID, p.Role)
		p.relay.deliver(p.RoomID, p.Role, domain.SystemMessage(domain.KindCloseSession, p.Role, p.ClientID))
		if p.Role == domain.RoleCustomer && p.relay.lifecycle != nil {
			p.relay.lifecycle.OnCustomerLeft(ctx, p.RoomID)
		}
		p.relay.publish(ctx, core.Event{Type: core.EventPeerLeft, RoomID: p.RoomID, Role: p.Role, ClientID: p.ClientID})
		log.Info().Str("module", "app.relay").Str("room", p.RoomID).Str("role", string(p.Role)).Msg("peer closed")
	})
}

// deliver sends to the slot opposite from; absence and send failures are
// logged and swallowed, never surfaced to the sender.
func (r *Relay) deliver(roomID string, from domain.Role, data []byte) {
	conn, ok := r.rooms.Peer(roomID, from)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("room", roomID).Msg("peer absent, message dropped")
		return
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("room", roomID).Msg("peer delivery failed")
	}
}

func (r *Relay) publish(ctx context.Context, ev core.Event) {
	if r.events == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	if err := r.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("event", ev.Type).Msg("event publish failed")
	}
}
