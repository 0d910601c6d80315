package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

const roomCapacity = 2

// RoomRegistry owns the mapping from room id to its two slots. A room
// exists iff at least one slot is occupied; the last release removes it.
// A single mutex serializes admit/release/lookup, which is enough at the
// room cardinality this service runs at.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[domain.Role]core.PeerConn
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]map[domain.Role]core.PeerConn)}
}

// Admit checks the admission rules in order and, on success, occupies the
// slot in the same critical section. peerPresent reports whether the
// opposite slot was already occupied at admission time.
func (r *RoomRegistry) Admit(roomID string, role domain.Role, conn core.PeerConn) (peerPresent bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots, ok := r.rooms[roomID]
	if !ok {
		// Rooms represent customer-initiated requests; only the
		// customer may originate one.
		if role != domain.RoleCustomer {
			return false, &core.AdmissionError{Reason: core.RejectNoSuchRoom}
		}
		r.rooms[roomID] = map[domain.Role]core.PeerConn{role: conn}
		log.Info().Str("module", "app.registry").Str("room", roomID).Str("role", string(role)).Msg("room created")
		return false, nil
	}
	if role == domain.RoleAgent {
		if _, ok := slots[domain.RoleCustomer]; !ok {
			// The customer already left; admitting would strand
			// the agent in a ghost room.
			return false, &core.AdmissionError{Reason: core.RejectPeerAbsent}
		}
	}
	if len(slots) >= roomCapacity {
		return false, &core.AdmissionError{Reason: core.RejectRoomFull}
	}
	if _, taken := slots[role]; taken {
		return false, &core.AdmissionError{Reason: core.RejectRoleTaken}
	}
	slots[role] = conn
	_, peerPresent = slots[role.Opposite()]
	log.Info().Str("module", "app.registry").Str("room", roomID).Str("role", string(role)).Bool("peer_present", peerPresent).Msg("admitted")
	return peerPresent, nil
}

// Release vacates the slot and drops the room when it empties. Releasing a
// vacant slot or unknown room is a no-op.
func (r *RoomRegistry) Release(roomID string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := slots[role]; !ok {
		return
	}
	delete(slots, role)
	if len(slots) == 0 {
		delete(r.rooms, roomID)
		log.Info().Str("module", "app.registry").Str("room", roomID).Msg("room removed")
	}
}

// Peer returns the connection occupying the slot opposite role.
func (r *RoomRegistry) Peer(roomID string, role domain.Role) (core.PeerConn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.rooms[roomID][role.Opposite()]
	return conn, ok
}

// Others returns every occupied connection in the room except role's own.
func (r *RoomRegistry) Others(roomID string, role domain.Role) []core.PeerConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	slots := r.rooms[roomID]
	out := make([]core.PeerConn, 0, len(slots))
	for slotRole, conn := range slots {
		if slotRole != role {
			out = append(out, conn)
		}
	}
	return out
}

// RolePresent reports whether the given role is currently connected.
func (r *RoomRegistry) RolePresent(roomID string, role domain.Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[roomID][role]
	return ok
}

// RoomPresence is a read-only view for listings.
type RoomPresence struct {
	RoomID   string `json:"room_id"`
	Customer bool   `json:"customer_online"`
	Agent    bool   `json:"agent_online"`
}

func (r *RoomRegistry) Snapshot() []RoomPresence {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RoomPresence, 0, len(r.rooms))
	for roomID, slots := range r.rooms {
		_, customer := slots[domain.RoleCustomer]
		_, agent := slots[domain.RoleAgent]
		out = append(out, RoomPresence{RoomID: roomID, Customer: customer, Agent: agent})
	}
	return out
}
