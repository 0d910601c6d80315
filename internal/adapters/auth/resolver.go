// Package auth resolves join credentials to a role and subject identity.
package auth

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/finvue/vkyc/internal/core"
	"github.com/finvue/vkyc/internal/domain"
)

const (
	// ModeToken requires a signed bearer token carrying role and subject.
	ModeToken = "token"
	// ModeOpen trusts an explicit role query parameter; for development
	// and closed-network deployments only.
	ModeOpen = "open"
)

func NewResolver(mode, secret string) (core.IdentityResolver, error) {
	switch mode {
	case ModeToken:
		return NewTokenResolver(secret), nil
	case ModeOpen:
		return OpenResolver{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", mode)
	}
}

// OpenResolver implements the anonymous join variant: the role comes
// straight from the request and the subject id is generated.
type OpenResolver struct{}

func (OpenResolver) Resolve(q url.Values) (core.Identity, error) {
	role, err := domain.ParseRole(q.Get("role"))
	if err != nil {
		return core.Identity{}, core.ErrAuthenticationFailed
	}
	return core.Identity{Role: role, SubjectID: uuid.NewString()}, nil
}
