package service

import (
	"context"
	"errors"
	"time"

	"github.com/campusfound/campusfound/internal/auth/domain"
	"github.com/campusfound/campusfound/internal/auth/revocation"
	"github.com/campusfound/campusfound/internal/auth/store"
	"github.com/campusfound/campusfound/pkg/jwtx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

var (
	ErrNoToken          = errors.New("no_token")
	ErrTokenRevoked     = errors.New("token_revoked")
	ErrTokenExpired     = errors.New("token_expired")
	ErrTokenNotYetValid = errors.New("token_not_yet_valid")
	ErrWrongTokenType   = errors.New("wrong_token_type")
	ErrInvalidToken     = errors.New("invalid_token")
	ErrUserNotFound     = errors.New("user_not_found")
)

// UserLookup is the slice of the user store the session core needs: refresh
// re-resolves the account so deleted users stop minting tokens.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

// SessionService orchestrates the session lifecycle: issuing paired
// access/refresh tokens, verifying access tokens against the revocation
// registry, rotating refresh tokens, and ending sessions.
type SessionService struct {
	Codec      *jwtx.Codec
	Registry   revocation.Registry
	Users      UserLookup
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTTL
}

// Issue mints a fresh access/refresh pair for u. The caller has already
// confirmed credentials; this is pure issuance. Each token carries its own
// unique jti.
func (s *SessionService) Issue(ctx context.Context, u domain.User) (*domain.TokenPair, error) {
	access, err := s.Codec.Sign(jwtx.NewClaims(
		u.ID, u.Email, string(u.Role), jwtx.TokenTypeAccess, s.accessTTL(), s.Issuer))
	if err != nil {
		return nil, err
	}

	refresh, err := s.Codec.Sign(jwtx.NewClaims(
		u.ID, u.Email, string(u.Role), jwtx.TokenTypeRefresh, s.refreshTTL(), s.Issuer))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// VerifyAccess is the authentication gate: it turns a presented bearer
// token into a Principal or a typed rejection. The revocation lookup runs
// before signature verification; both checks reject independently, the
// ordering just keeps revoked tokens off the crypto path.
func (s *SessionService) VerifyAccess(ctx context.Context, token string) (domain.Principal, error) {
	if token == "" {
		return domain.Principal{}, ErrNoToken
	}

	revoked, err := s.Registry.IsRevoked(ctx, token)
	if err != nil {
		return domain.Principal{}, err
	}
	if revoked {
		return domain.Principal{}, ErrTokenRevoked
	}

	claims, err := s.Codec.Decode(token, jwtx.TokenTypeAccess)
	if err != nil {
		switch {
		case errors.Is(err, jwtx.ErrExpired):
			return domain.Principal{}, ErrTokenExpired
		case errors.Is(err, jwtx.ErrNotYetValid):
			return domain.Principal{}, ErrTokenNotYetValid
		case errors.Is(err, jwtx.ErrWrongType):
			return domain.Principal{}, ErrWrongTokenType
		default:
			return domain.Principal{}, ErrInvalidToken
		}
	}

	return domain.Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   domain.Role(claims.Role),
	}, nil
}

// Refresh exchanges a refresh token for a new access/refresh pair and
// rotates: the presented refresh token is revoked atomically before the new
// pair is signed, so of two racing refresh calls on the same token exactly
// one succeeds and the other observes token_revoked. A stolen refresh token
// used after the legitimate rotation trips over the same check, which is
// the theft-detection signal.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrNoToken
	}

	revoked, err := s.Registry.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	claims, err := s.Codec.Decode(refreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	// Re-resolve the user so deactivated accounts cannot keep refreshing,
	// and so role changes take effect on the next rotation.
	u, err := s.Users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// First rotation wins: compare-and-revoke the old token before minting
	// replacements. A racing duplicate lost if this reports false.
	first, err := s.Registry.Revoke(ctx, refreshToken, revocation.ReasonRotation)
	if err != nil {
		return nil, err
	}
	if !first {
		slogx.FromContext(ctx).Warn("refresh token reused after rotation",
			"user_id", u.ID,
			"token_prefix", jwtx.TokenPrefix(refreshToken))
		return nil, ErrTokenRevoked
	}

	return s.Issue(ctx, u)
}

// Logout ends a session by revoking both tokens. Missing or already-revoked
// halves are no-ops, so calling Logout twice with the same tokens succeeds.
func (s *SessionService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		if _, err := s.Registry.Revoke(ctx, token, revocation.ReasonLogout); err != nil {
			return err
		}
	}
	return nil
}
