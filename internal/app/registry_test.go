package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

type fakeConn struct {
	mu   sync.Mutex
	sent [][]byte
}

func (c *fakeConn) TrySend(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) Close()                      {}
func (c *fakeConn) CloseWithStatus(int, string) {}

func (c *fakeConn) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

func rejectReason(t *testing.T, err error) core.RejectReason {
	t.Helper()
	var adm *core.AdmissionError
	if !errors.As(err, &adm) {
		t.Fatalf("err = %v, want AdmissionError", err)
	}
	return adm.Reason
}

func TestAdmit_AgentCannotCreateRoom(t *testing.T) {
	reg := NewRoomRegistry()
	_, err := reg.Admit("kyc-000001", domain.RoleAgent, &fakeConn{})
	if got := rejectReason(t, err); got != core.RejectNoSuchRoom {
		t.Fatalf("reason = %q, want no-such-room", got)
	}
	if reg.RolePresent("kyc-000001", domain.RoleAgent) {
		t.Fatalf("rejected admission must not occupy a slot")
	}
}

func TestAdmit_CustomerCreatesThenAgentJoins(t *testing.T) {
	reg := NewRoomRegistry()

	peerPresent, err := reg.Admit("kyc-000002", domain.RoleCustomer, &fakeConn{})
	if err != nil {
		t.Fatalf("customer admit: %v", err)
	}
	if peerPresent {
		t.Fatalf("first admission must report peer absent")
	}

	peerPresent, err = reg.Admit("kyc-000002", domain.RoleAgent, &fakeConn{})
	if err != nil {
		t.Fatalf("agent admit: %v", err)
	}
	if !peerPresent {
		t.Fatalf("second admission must report peer present")
	}
}

func TestAdmit_RoleTaken(t *testing.T) {
	reg := NewRoomRegistry()
	if _, err := reg.Admit("r", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("admit: %v", err)
	}
	_, err := reg.Admit("r", domain.RoleCustomer, &fakeConn{})
	if got := rejectReason(t, err); got != core.RejectRoleTaken {
		t.Fatalf("reason = %q, want role-taken", got)
	}
}

func TestAdmit_RoomFull(t *testing.T) {
	reg := NewRoomRegistry()
	if _, err := reg.Admit("r", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("admit customer: %v", err)
	}
	if _, err := reg.Admit("r", domain.RoleAgent, &fakeConn{}); err != nil {
		t.Fatalf("admit agent: %v", err)
	}
	// Both roles occupied: either role retrying hits capacity first.
	_, err := reg.Admit("r", domain.RoleAgent, &fakeConn{})
	if got := rejectReason(t, err); got != core.RejectRoomFull {
		t.Fatalf("reason = %q, want room-full", got)
	}
}

func TestAdmit_AgentRejectedWhenCustomerGone(t *testing.T) {
	reg := NewRoomRegistry()
	if _, err := reg.Admit("r", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("admit customer: %v", err)
	}
	if _, err := reg.Admit("r", domain.RoleAgent, &fakeConn{}); err != nil {
		t.Fatalf("admit agent: %v", err)
	}
	reg.Release("r", domain.RoleCustomer)

	// Room still exists (agent is in it) but the customer slot is empty.
	_, err := reg.Admit("r", domain.RoleAgent, &fakeConn{})
	if got := rejectReason(t, err); got != core.RejectPeerAbsent {
		t.Fatalf("reason = %q, want peer-absent", got)
	}
}

func TestRelease_LastSlotRemovesRoom(t *testing.T) {
	reg := NewRoomRegistry()
	if _, err := reg.Admit("r", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("admit: %v", err)
	}
	reg.Release("r", domain.RoleCustomer)

	// The whole room is gone, so a new customer can re-create it and an
	// agent sees no-such-room, not an empty-but-live room.
	_, err := reg.Admit("r", domain.RoleAgent, &fakeConn{})
	if got := rejectReason(t, err); got != core.RejectNoSuchRoom {
		t.Fatalf("reason = %q, want no-such-room", got)
	}
	if _, err := reg.Admit("r", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("re-create after drain: %v", err)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	reg := NewRoomRegistry()
	reg.Release("ghost", domain.RoleCustomer)
	if _, err := reg.Admit("r", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("admit: %v", err)
	}
	reg.Release("r", domain.RoleAgent)
	if !reg.RolePresent("r", domain.RoleCustomer) {
		t.Fatalf("releasing a vacant slot must not disturb the occupied one")
	}
}

func TestPeerLookup(t *testing.T) {
	reg := NewRoomRegistry()
	customer := &fakeConn{}
	agent := &fakeConn{}
	if _, err := reg.Admit("r", domain.RoleCustomer, customer); err != nil {
		t.Fatalf("admit: %v", err)
	}

	if _, ok := reg.Peer("r", domain.RoleCustomer); ok {
		t.Fatalf("peer lookup should report absence, not failure")
	}
	if _, err := reg.Admit("r", domain.RoleAgent, agent); err != nil {
		t.Fatalf("admit: %v", err)
	}
	conn, ok := reg.Peer("r", domain.RoleCustomer)
	if !ok || conn != core.PeerConn(agent) {
		t.Fatalf("customer's peer should be the agent connection")
	}
}

func TestAdmit_ConcurrentSameSlot(t *testing.T) {
	const attempts = 32
	reg := NewRoomRegistry()
	if _, err := reg.Admit("r", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("admit customer: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Admit("r", domain.RoleAgent, &fakeConn{}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("concurrent admissions for one slot: %d won, want exactly 1", wins)
	}
}

func TestSnapshot(t *testing.T) {
	reg := NewRoomRegistry()
	if _, err := reg.Admit("r1", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if _, err := reg.Admit("r1", domain.RoleAgent, &fakeConn{}); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if _, err := reg.Admit("r2", domain.RoleCustomer, &fakeConn{}); err != nil {
		t.Fatalf("admit: %v", err)
	}

	snap := reg.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot rooms = %d, want 2", len(snap))
	}
	byID := map[string]RoomPresence{}
	for _, p := range snap {
		byID[p.RoomID] = p
	}
	if p := byID["r1"]; !p.Customer || !p.Agent {
		t.Fatalf("r1 presence = %+v", p)
	}
	if p := byID["r2"]; !p.Customer || p.Agent {
		t.Fatalf("r2 presence = %+v", p)
	}
}
