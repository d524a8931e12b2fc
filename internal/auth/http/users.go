package http

import (
	"net/http"

	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/pkg/httpx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

type UsersHandler struct {
	UserService *service.UserService
}

type usersResponse struct {
	Users []userResponse `json:"users"`
}

// ServeHTTP lists every account. Admin only; the route carries
// RequireRole(ADMIN) so no role check is repeated here.
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.UserService.Users.ListUsers(ctx)
	if err != nil {
		log.Error("failed to list users", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not list accounts")
		return
	}

	out := usersResponse{Users: make([]userResponse, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, toUserResponse(u))
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}
