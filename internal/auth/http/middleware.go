package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/campusfound/campusfound/internal/auth/domain"
	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/pkg/httpx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

// AuthnMiddleware extracts the bearer token, verifies it as an access token,
// and stores the resulting principal on the request context. Every failure
// is a 401; the error code tells the client whether retrying with the same
// token can ever succeed.
func AuthnMiddleware(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := bearerToken(r)

			principal, err := sessions.VerifyAccess(ctx, raw)
			if err != nil {
				code, desc := bearerErrorFor(err)
				writeBearerError(w, code, desc)
				if !errors.Is(err, service.ErrNoToken) {
					log.Warn("access token rejected", "reason", err.Error())
				}
				return
			}

			ctx = withPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a handler on the principal holding one of the allowed
// roles. It must run after AuthnMiddleware; a missing principal is a wiring
// bug and is logged as such.
func RequireRole(allowed ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var principal *domain.Principal
			if p, ok := PrincipalFromContext(ctx); ok {
				principal = &p
			}

			switch err := service.Authorize(principal, allowed...); {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, service.ErrNoPrincipal):
				slogx.FromContext(ctx).Error("role check reached without authentication",
					"path", r.URL.Path)
				writeBearerError(w, "invalid_token", "authentication required")
			default:
				httpx.WriteError(w, http.StatusForbidden,
					"insufficient_role", "the authenticated user may not perform this action")
			}
		})
	}
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

// bearerErrorFor maps a verification failure onto an RFC 6750 error code.
func bearerErrorFor(err error) (code, desc string) {
	switch {
	case errors.Is(err, service.ErrNoToken):
		return "invalid_request", "missing bearer token"
	case errors.Is(err, service.ErrTokenExpired):
		return "invalid_token", "token expired"
	case errors.Is(err, service.ErrTokenRevoked):
		return "invalid_token", "token revoked"
	case errors.Is(err, service.ErrTokenNotYetValid):
		return "invalid_token", "token not yet valid"
	case errors.Is(err, service.ErrWrongTokenType):
		return "invalid_token", "not an access token"
	default:
		return "invalid_token", "token verification failed"
	}
}

func writeBearerError(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate",
		`Bearer error="`+code+`", error_description="`+desc+`"`)
	httpx.WriteError(w, http.StatusUnauthorized, code, desc)
}
