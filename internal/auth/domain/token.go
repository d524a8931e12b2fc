package domain

import "time"

// TokenPair is what a successful login, register or refresh returns: the
// short-lived access token and the longer-lived refresh token, both compact
// signed tokens.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"` // access token lifetime
}

// Principal is the authenticated identity derived from a verified,
// non-revoked access token. Constructed fresh per request, never persisted.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
