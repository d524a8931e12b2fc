package http

import (
	"context"

	"github.com/campusfound/campusfound/internal/auth/domain"
)

type principalKey struct{}

// withPrincipal stores the verified caller identity on the request context.
// Only AuthnMiddleware writes it.
func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the verified caller identity, if any. Handlers
// behind AuthnMiddleware can rely on ok being true.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}
