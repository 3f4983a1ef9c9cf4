// Package authz carries the acting user and the role rules shared by the
// bounded contexts.
package authz

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnauthenticated is returned when no valid acting user accompanies a call.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrNotOwner is returned when a customer acts on a resource owned by someone else.
	ErrNotOwner = errors.New("resource belongs to another user")
	// ErrForbidden is returned when the acting role or the resource state does not allow the action.
	ErrForbidden = errors.New("action not permitted")
	// ErrInvalidRole signals an unknown role value.
	ErrInvalidRole = errors.New("invalid role")
)

// Role is the closed set of user roles.
type Role string

const (
	RoleCustomer    Role = "customer"
	RoleLoanOfficer Role = "loan_officer"
	RoleUnderwriter Role = "underwriter"
)

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleLoanOfficer:
		return RoleLoanOfficer, nil
	case RoleUnderwriter:
		return RoleUnderwriter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// IsReviewer reports whether the role may review and decide applications.
func (r Role) IsReviewer() bool {
	switch r {
	case RoleLoanOfficer, RoleUnderwriter:
		return true
	default:
		return false
	}
}

func (r Role) valid() bool {
	switch r {
	case RoleCustomer, RoleLoanOfficer, RoleUnderwriter:
		return true
	default:
		return false
	}
}

// Actor is the acting user threaded through every use case.
type Actor struct {
	ID   int64
	Role Role
}

// Authenticated reports whether the actor carries a usable identity.
func (a Actor) Authenticated() bool {
	return a.ID > 0 && a.Role.valid()
}

// IsReviewer reports whether the actor is a loan officer or underwriter.
func (a Actor) IsReviewer() bool {
	return a.Authenticated() && a.Role.IsReviewer()
}

// RequireAuthenticated returns ErrUnauthenticated for anonymous actors.
func RequireAuthenticated(a Actor) error {
	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireReviewer allows only loan officers and underwriters.
func RequireReviewer(a Actor) error {
	if err := RequireAuthenticated(a); err != nil {
		return err
	}
	if !a.Role.IsReviewer() {
		return fmt.Errorf("%w: reviewer role required", ErrForbidden)
	}
	return nil
}

// Token is a signed credential issued for an actor.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}
