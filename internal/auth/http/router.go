package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/campusfound/campusfound/internal/auth/domain"
	"github.com/campusfound/campusfound/internal/auth/revocation"
	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/internal/auth/store"
	"github.com/campusfound/campusfound/pkg/httpx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	registry revocation.Registry

	UserService    *service.UserService
	SessionService *service.SessionService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	registry revocation.Registry,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		registry:     registry,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Credential-bearing endpoints get the strict per-IP limit.
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(&RegisterHandler{UserService: r.UserService, SessionService: r.SessionService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(&LoginHandler{UserService: r.UserService, SessionService: r.SessionService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(&RefreshHandler{SessionService: r.SessionService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Logout takes tokens, not credentials; no authn gate so dead access
	// tokens can still be logged out.
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(&LogoutHandler{SessionService: r.SessionService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	me := httpx.Chain(&UserInfoHandler{UserService: r.UserService},
		AuthnMiddleware(r.SessionService),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	)
	r.Mux.Handle("GET /auth/me", me)

	// Carries the current password, so it gets the credential-endpoint limit.
	password := httpx.Chain(&PasswordHandler{UserService: r.UserService, SessionService: r.SessionService},
		AuthnMiddleware(r.SessionService),
		httpx.RateLimitByIP(httpx.StrictLimit),
	)
	r.Mux.Handle("POST /auth/password", password)

	list := httpx.Chain(&UsersHandler{UserService: r.UserService},
		AuthnMiddleware(r.SessionService),
		RequireRole(domain.RoleAdmin),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	)
	r.Mux.Handle("GET /auth/users", list)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.registry))
}
