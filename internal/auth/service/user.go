package service

import (
	"context"
	"errors"
	"strings"

	"github.com/campusfound/campusfound/internal/auth/domain"
	"github.com/campusfound/campusfound/internal/auth/store"
	"github.com/campusfound/campusfound/pkg/cryptox"
	"github.com/campusfound/campusfound/pkg/idx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidInput       = errors.New("invalid_input")
)

const minPasswordLength = 8

// UserService owns account creation and credential verification. Session
// issuance happens only after one of these succeeds; the session core never
// touches passwords.
type UserService struct {
	Users store.Users
}

// Register creates a new account with the given role and returns it. The
// transport layer decides which roles are self-assignable (public
// registration hardcodes STUDENT).
func (s *UserService) Register(
	ctx context.Context,
	email, name, password string,
	role domain.Role,
) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || name == "" || !strings.Contains(email, "@") {
		return domain.User{}, ErrInvalidInput
	}
	if len(password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}
	if !role.Valid() {
		return domain.User{}, ErrInvalidInput
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	u.PasswordHash = ""
	return u, nil
}

// ChangePassword replaces the stored hash after re-verifying the current
// password. Callers are expected to end the active session afterwards so a
// stolen token does not outlive the credential it was minted under.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := cryptox.VerifyPassword(current, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Error("stored password hash unreadable",
				"user_id", u.ID, "error", err)
		}
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.Users.UpdatePasswordHash(ctx, userID, hash)
}

// Login verifies an email/password pair and returns the account. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			// Unparseable stored hash; worth surfacing in logs.
			slogx.FromContext(ctx).Error("stored password hash unreadable",
				"user_id", u.ID, "error", err)
		}
		return domain.User{}, ErrInvalidCredentials
	}

	u.PasswordHash = ""
	return u, nil
}
