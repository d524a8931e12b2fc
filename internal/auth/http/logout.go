package http

import (
	"encoding/json"
	"net/http"

	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/pkg/httpx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

type LogoutHandler struct {
	SessionService *service.SessionService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP ends the caller's session by revoking both tokens. The access
// token comes from the Authorization header, the refresh token from the
// body; either may be absent. Logout is idempotent, so the answer is 204
// even when the tokens were already dead.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req logoutRequest
	if r.Body != nil {
		// A missing or empty body still logs out the access token.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	access := bearerToken(r)

	if err := h.SessionService.Logout(ctx, access, req.RefreshToken); err != nil {
		log.Error("logout failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not end session")
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
