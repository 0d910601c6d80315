// Package domain contains entities without logic, just meta-data.
package domain

import "fmt"

// Role is one of the two fixed slots a room can hold.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleAgent:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Opposite returns the other slot of the pair.
func (r Role) Opposite() Role {
	if r == RoleCustomer {
		return RoleAgent
	}
	return RoleCustomer
}
