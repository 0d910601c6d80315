package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, claims map[string]any) string {
	t.Helper()
	header, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	h := base64.RawURLEncoding.EncodeToString(header)
	p := base64.RawURLEncoding.EncodeToString(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(h + "." + p))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return h + "." + p + "." + sig
}

func query(token string) url.Values {
	q := url.Values{}
	if token != "" {
		q.Set("token", token)
	}
	return q
}

func TestTokenResolver_Valid(t *testing.T) {
	r := NewTokenResolver(testSecret)
	token := mintToken(t, testSecret, map[string]any{
		"sub":  "user-42",
		"role": "agent",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	id, err := r.Resolve(query(token))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.Role != domain.RoleAgent || id.SubjectID != "user-42" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestTokenResolver_Rejections(t *testing.T) {
	r := NewTokenResolver(testSecret)
	now := time.Now()
	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", mintToken(t, "other-secret", map[string]any{"sub": "u", "role": "agent"})},
		{"expired", mintToken(t, testSecret, map[string]any{"sub": "u", "role": "agent", "exp": now.Add(-time.Minute).Unix()})},
		{"bad role", mintToken(t, testSecret, map[string]any{"sub": "u", "role": "admin"})},
		{"missing subject", mintToken(t, testSecret, map[string]any{"role": "customer"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := r.Resolve(query(tc.token)); !errors.Is(err, core.ErrAuthenticationFailed) {
				t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
			}
		})
	}
}

func TestTokenResolver_RejectsUnsignedAlg(t *testing.T) {
	r := NewTokenResolver(testSecret)
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u","role":"agent"}`))
	token := header + "." + payload + "."
	if _, err := r.Resolve(query(token)); !errors.Is(err, core.ErrAuthenticationFailed) {
		t.Fatalf("alg=none must be rejected, got %v", err)
	}
}

func TestOpenResolver(t *testing.T) {
	q := url.Values{}
	q.Set("role", "customer")
	id, err := OpenResolver{}.Resolve(q)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.Role != domain.RoleCustomer || id.SubjectID == "" {
		t.Fatalf("identity = %+v", id)
	}

	q.Set("role", "superuser")
	if _, err := (OpenResolver{}).Resolve(q); !errors.Is(err, core.ErrAuthenticationFailed) {
		t.Fatalf("bad role must fail authentication, got %v", err)
	}
}

func TestNewResolver(t *testing.T) {
	if _, err := NewResolver(ModeToken, "s"); err != nil {
		t.Fatalf("token mode: %v", err)
	}
	if _, err := NewResolver(ModeOpen, ""); err != nil {
		t.Fatalf("open mode: %v", err)
	}
	if _, err := NewResolver("oauth", ""); err == nil {
		t.Fatalf("unsupported mode must fail")
	}
}
