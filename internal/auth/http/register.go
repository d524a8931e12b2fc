package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusfound/campusfound/internal/auth/domain"
	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/pkg/httpx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

type RegisterHandler struct {
	UserService    *service.UserService
	SessionService *service.SessionService
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type registerResponse struct {
	User   userResponse  `json:"user"`
	Tokens tokenResponse `json:"tokens"`
}

// ServeHTTP creates a student account and starts a session for it. Public
// registration never accepts a role from the client; staff and admin
// accounts are provisioned out of band.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	user, err := h.UserService.Register(ctx, req.Email, req.Name, req.Password, domain.RoleStudent)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
		case errors.Is(err, service.ErrInvalidInput):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and name are required")
		default:
			log.Error("registration failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not create account")
		}
		return
	}

	tokens, err := h.SessionService.Issue(ctx, user)
	if err != nil {
		log.Error("session issue after registration failed", "user_id", user.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not start session")
		return
	}

	log.Info("account registered", "user_id", user.ID)

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		User:   toUserResponse(user),
		Tokens: toTokenResponse(tokens),
	})
}
