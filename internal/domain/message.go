package domain

import (
	"encoding/json"
	"errors"
)

// Kind is the wire vocabulary of signaling messages.
type Kind string

const (
	KindOffer        Kind = "offer"
	KindAnswer       Kind = "answer"
	KindICECandidate Kind = "ice-candidate"
	KindMediaStatus  Kind = "media-status"
	KindCloseSession Kind = "close-session"
	KindChat         Kind = "chat"
	KindPeerJoined   Kind = "peer-joined"
	KindPeerLeft     Kind = "peer-left"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrMissingKind      = errors.New("message has no type")
)

// Forwardable reports whether the kind is negotiation/control traffic that
// is relayed point-to-point to the opposite slot.
func (k Kind) Forwardable() bool {
	switch k {
	case KindOffer, KindAnswer, KindICECandidate, KindMediaStatus, KindCloseSession:
		return true
	}
	return false
}

// Envelope is one decoded inbound message. Payload fields this service does
// not model are kept raw so forwarding never strips them.
type Envelope struct {
	Kind   Kind
	fields map[string]json.RawMessage
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Envelope{}, ErrMalformedMessage
	}
	raw, ok := fields["type"]
	if !ok {
		return Envelope{}, ErrMissingKind
	}
	var kind Kind
	if err := json.Unmarshal(raw, &kind); err != nil || kind == "" {
		return Envelope{}, ErrMissingKind
	}
	return Envelope{Kind: kind, fields: fields}, nil
}

// Stamp sets the sender's role and peer id on the message and re-encodes it
// for delivery. All other fields pass through untouched.
func (e Envelope) Stamp(role Role, peerID string) []byte {
	e.fields["role"], _ = json.Marshal(role)
	e.fields["peerId"], _ = json.Marshal(peerID)
	b, _ := json.Marshal(e.fields)
	return b
}

// SystemMessage builds a relay-originated notification such as peer-joined
// or the synthetic close-session sent to a surviving peer.
func SystemMessage(kind Kind, role Role, peerID string) []byte {
	b, _ := json.Marshal(map[string]any{
		"type":   kind,
		"role":   role,
		"peerId": peerID,
	})
	return b
}
