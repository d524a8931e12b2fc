package service

import (
	"errors"

	"github.com/campusfound/campusfound/internal/auth/domain"
)

var (
	// ErrNoPrincipal means the authorization gate ran without a prior
	// successful authentication. That is a caller-ordering bug, not a
	// client error, and should be logged loudly where it surfaces.
	ErrNoPrincipal = errors.New("no_principal")

	ErrInsufficientRole = errors.New("insufficient_role")
)

// Authorize checks an authenticated principal against an allowed role set.
// An empty allowed set means any authenticated principal passes.
func Authorize(p *domain.Principal, allowed ...domain.Role) error {
	if p == nil || p.UserID == "" {
		return ErrNoPrincipal
	}

	if len(allowed) == 0 {
		return nil
	}

	if !p.Role.OneOf(allowed...) {
		return ErrInsufficientRole
	}
	return nil
}
