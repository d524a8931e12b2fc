package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/pkg/httpx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

type PasswordHandler struct {
	UserService    *service.UserService
	SessionService *service.SessionService
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	RefreshToken    string `json:"refresh_token"`
}

// ServeHTTP changes the authenticated user's password and ends the current
// session: tokens minted under the old credential stay revocable-valid
// otherwise, so both are revoked and the client signs in again.
func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		writeBearerError(w, "invalid_token", "authentication required")
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	err := h.UserService.ChangePassword(ctx, principal.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect")
		default:
			log.Error("password change failed", "user_id", principal.UserID, "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not change password")
		}
		return
	}

	if err := h.SessionService.Logout(ctx, bearerToken(r), req.RefreshToken); err != nil {
		log.Error("session revocation after password change failed",
			"user_id", principal.UserID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not end session")
		return
	}

	log.Info("password changed", "user_id", principal.UserID)

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
