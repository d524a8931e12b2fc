package jwtx

import (
	"time"

	"github.com/campusfound/campusfound/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes the two kinds of session tokens. The type is fixed
// into the signed payload at issuance and checked again at decode time, so a
// refresh token can never be replayed as an access token or vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Default token lifetimes. Always derived by the codec, never
// client-supplied.
const (
	// DefaultAccessTTL is the default lifetime for access tokens.
	// Short-lived so a stolen access token has a small blast radius.
	DefaultAccessTTL = 15 * time.Minute

	// DefaultRefreshTTL is the default lifetime for refresh tokens.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the signed payload carried by both token types. We keep changes
// additive to preserve compatibility with already-issued tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`

	// Role name, e.g. "STUDENT" or "ADMIN".
	Role string `json:"role,omitempty"`

	// TokenType is "access" or "refresh".
	TokenType TokenType `json:"token_type"`
}

// NewClaims builds minimally-correct claims for a token issued now.
// The jti is a fresh ULID and is the unit of revocation.
func NewClaims(userID, email, role string, typ TokenType, ttl time.Duration, issuer string) Claims {
	return NewClaimsAt(userID, email, role, typ, ttl, issuer, time.Now().UTC())
}

// NewClaimsAt is NewClaims with an explicit issue time, so tests can mint
// backdated or future-dated tokens without a real clock.
func NewClaimsAt(
	userID, email, role string,
	typ TokenType,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		Email:     email,
		Role:      role,
		TokenType: typ,
	}
}
