package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/campusfound/campusfound/internal/auth/domain"
	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/internal/auth/store"
	"github.com/campusfound/campusfound/pkg/httpx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

type UserInfoHandler struct {
	UserService *service.UserService
}

type userResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at,omitzero"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ServeHTTP returns the authenticated user's account. The principal's claims
// may lag a profile edit, so the record is re-read from the store.
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		writeBearerError(w, "invalid_token", "authentication required")
		return
	}

	user, err := h.UserService.Users.GetUserByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeBearerError(w, "invalid_token", "unknown user")
			return
		}
		log.Error("failed to load user", "user_id", principal.UserID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not load account")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}
