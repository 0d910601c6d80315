package core

// RejectReason classifies why an admission was refused. Every reason maps
// to a distinct websocket close status so clients can tell failure classes
// apart.
type RejectReason string

const (
	RejectRoomFull   RejectReason = "room-full"
	RejectRoleTaken  RejectReason = "role-taken"
	RejectPeerAbsent RejectReason = "peer-absent"
	RejectNoSuchRoom RejectReason = "no-such-room"
)

const (
	CloseRoomFull   = 4001
	CloseRoleTaken  = 4002
	ClosePeerAbsent = 4003
	CloseNoSuchRoom = 4004
	CloseAuthFailed = 4005
)

func (r RejectReason) CloseStatus() int {
	switch r {
	case RejectRoomFull:
		return CloseRoomFull
	case RejectRoleTaken:
		return CloseRoleTaken
	case RejectPeerAbsent:
		return ClosePeerAbsent
	case RejectNoSuchRoom:
		return CloseNoSuchRoom
	}
	return CloseRoomFull
}

// AdmissionError is the typed rejection returned by the room registry.
type AdmissionError struct {
	Reason RejectReason
}

func (e *AdmissionError) Error() string {
	return "admission rejected: " + string(e.Reason)
}
