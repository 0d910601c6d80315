package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

const maxTokenLen = 8 * 1024

// TokenResolver verifies HS256 bearer tokens minted by the credential
// service. Claims: sub (subject id), role, exp, iat.
type TokenResolver struct {
	secret []byte
	now    func() time.Time
}

func NewTokenResolver(secret string) *TokenResolver {
	return &TokenResolver{secret: []byte(secret), now: time.Now}
}

type tokenClaims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	Exp  int64  `json:"exp"`
	Iat  int64  `json:"iat"`
}

func (r *TokenResolver) Resolve(q url.Values) (core.Identity, error) {
	token := q.Get("token")
	if token == "" {
		return core.Identity{}, core.ErrAuthenticationFailed
	}
	claims, err := r.verify(token)
	if err != nil {
		return core.Identity{}, core.ErrAuthenticationFailed
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.Sub == "" {
		return core.Identity{}, core.ErrAuthenticationFailed
	}
	return core.Identity{Role: role, SubjectID: claims.Sub}, nil
}

func (r *TokenResolver) verify(token string) (tokenClaims, error) {
	if len(token) > maxTokenLen {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	headerJSON, err := base64.RawURLEncoding.DecodeString(headerB64)
	if err != nil {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil || header.Alg != "HS256" {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}

	gotSig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}
	mac := hmac.New(sha256.New, r.secret)
	mac.Write([]byte(headerB64))
	mac.Write([]byte{'.'})
	mac.Write([]byte(payloadB64))
	if !hmac.Equal(gotSig, mac.Sum(nil)) {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}
	var claims tokenClaims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}
	if claims.Exp != 0 && r.now().Unix() >= claims.Exp {
		return tokenClaims{}, core.ErrAuthenticationFailed
	}
	return claims, nil
}
