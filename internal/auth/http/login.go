package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/pkg/httpx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

type LoginHandler struct {
	UserService    *service.UserService
	SessionService *service.SessionService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   userResponse  `json:"user"`
	Tokens tokenResponse `json:"tokens"`
}

// ServeHTTP exchanges an email/password pair for a token pair.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	user, err := h.UserService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
			return
		}
		log.Error("login failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not sign in")
		return
	}

	tokens, err := h.SessionService.Issue(ctx, user)
	if err != nil {
		log.Error("session issue after login failed", "user_id", user.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not start session")
		return
	}

	log.Info("user signed in", "user_id", user.ID)

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		User:   toUserResponse(user),
		Tokens: toTokenResponse(tokens),
	})
}
