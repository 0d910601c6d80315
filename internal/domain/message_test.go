package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeEnvelope_StampPreservesUnknownFields(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"offer","sdp":"v=0...","custom":{"x":1}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Kind != KindOffer {
		t.Fatalf("kind = %q, want offer", env.Kind)
	}

	out := env.Stamp(RoleCustomer, "cust-1")
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal stamped: %v", err)
	}
	if got["role"] != "customer" || got["peerId"] != "cust-1" {
		t.Fatalf("stamp fields missing: %v", got)
	}
	if got["sdp"] != "v=0..." {
		t.Fatalf("sdp payload lost: %v", got)
	}
	if _, ok := got["custom"].(map[string]any); !ok {
		t.Fatalf("unknown field lost: %v", got)
	}
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	cases := []string{
		`not json`,
		`42`,
		`["array"]`,
	}
	for _, in := range cases {
		if _, err := DecodeEnvelope([]byte(in)); !errors.Is(err, ErrMalformedMessage) {
			t.Errorf("DecodeEnvelope(%q) err = %v, want ErrMalformedMessage", in, err)
		}
	}
	if _, err := DecodeEnvelope([]byte(`{"sdp":"x"}`)); !errors.Is(err, ErrMissingKind) {
		t.Errorf("missing type err = %v, want ErrMissingKind", err)
	}
	if _, err := DecodeEnvelope([]byte(`{"type":17}`)); !errors.Is(err, ErrMissingKind) {
		t.Errorf("non-string type err = %v, want ErrMissingKind", err)
	}
}

func TestKindForwardable(t *testing.T) {
	for _, k := range []Kind{KindOffer, KindAnswer, KindICECandidate, KindMediaStatus, KindCloseSession} {
		if !k.Forwardable() {
			t.Errorf("%q should be forwardable", k)
		}
	}
	for _, k := range []Kind{KindChat, KindPeerJoined, KindPeerLeft, Kind("bogus")} {
		if k.Forwardable() {
			t.Errorf("%q should not be forwardable", k)
		}
	}
}

func TestNewRoomID(t *testing.T) {
	id := NewRoomID(ServiceKYC)
	if !strings.HasPrefix(id, "kyc-") {
		t.Fatalf("room id = %q, want kyc- prefix", id)
	}
	if len(id) != len("kyc-")+6 {
		t.Fatalf("room id = %q, want 6 hex chars after prefix", id)
	}
	if id == NewRoomID(ServiceKYC) {
		t.Fatalf("consecutive room ids collided")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("agent"); err != nil || r != RoleAgent {
		t.Fatalf("ParseRole(agent) = %v, %v", r, err)
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Fatalf("ParseRole(admin) should fail")
	}
	if RoleCustomer.Opposite() != RoleAgent || RoleAgent.Opposite() != RoleCustomer {
		t.Fatalf("Opposite is not an involution")
	}
}
