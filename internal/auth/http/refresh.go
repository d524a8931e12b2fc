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

type RefreshHandler struct {
	SessionService *service.SessionService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse is the wire shape of a token pair. expires_in is seconds,
// per OAuth convention; the domain type carries a time.Duration.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func toTokenResponse(pair *domain.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	}
}

// ServeHTTP exchanges a refresh token for a fresh token pair. The presented
// token is dead afterwards whether or not the exchange succeeds for this
// caller; a replay of an already-rotated token comes back as token_revoked.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	tokens, err := h.SessionService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoToken):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		case errors.Is(err, service.ErrTokenExpired):
			httpx.WriteError(w, http.StatusUnauthorized, "token_expired", "refresh token has expired, sign in again")
		case errors.Is(err, service.ErrTokenRevoked):
			httpx.WriteError(w, http.StatusUnauthorized, "token_revoked", "refresh token is no longer valid")
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteError(w, http.StatusUnauthorized, "user_not_found", "account no longer exists")
		case errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrWrongTokenType),
			errors.Is(err, service.ErrTokenNotYetValid):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "refresh token is not valid")
		default:
			log.Error("token refresh failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not refresh session")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toTokenResponse(tokens))
}
