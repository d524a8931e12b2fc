package service_test

import (
	"context"
	"testing"

	"github.com/campusfound/campusfound/internal/auth/domain"
	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) *service.UserService {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return &service.UserService{Users: st.Users()}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := newUserFixture(t)

	u, err := users.Register(ctx, "Sam.Lee@Campus.edu", "Sam Lee", "hunter2hunter2", domain.RoleStudent)
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "sam.lee@campus.edu", u.Email)
	require.Equal(t, "Sam Lee", u.Name)
	require.Equal(t, domain.RoleStudent, u.Role)
	require.Empty(t, u.PasswordHash, "hash must not leave the service")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := users.Register(ctx, "sam.lee@campus.edu", "Other Sam", "hunter2hunter2", domain.RoleStudent)
		require.ErrorIs(t, err, service.ErrEmailTaken)
	})

	t.Run("duplicate email differs only by case", func(t *testing.T) {
		_, err := users.Register(ctx, "SAM.LEE@campus.edu", "Shouty Sam", "hunter2hunter2", domain.RoleStudent)
		require.ErrorIs(t, err, service.ErrEmailTaken)
	})
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := newUserFixture(t)

	cases := []struct {
		name     string
		email    string
		userName string
		password string
		role     domain.Role
		wantErr  error
	}{
		{"empty email", "", "Sam", "hunter2hunter2", domain.RoleStudent, service.ErrInvalidInput},
		{"email without at-sign", "not-an-email", "Sam", "hunter2hunter2", domain.RoleStudent, service.ErrInvalidInput},
		{"empty name", "a@b.edu", "", "hunter2hunter2", domain.RoleStudent, service.ErrInvalidInput},
		{"short password", "a@b.edu", "Sam", "short", domain.RoleStudent, service.ErrWeakPassword},
		{"unknown role", "a@b.edu", "Sam", "hunter2hunter2", domain.Role("WIZARD"), service.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := users.Register(ctx, tc.email, tc.userName, tc.password, tc.role)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := newUserFixture(t)

	u, err := users.Register(ctx, "ren@campus.edu", "Ren", "original password", domain.RoleStudent)
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := users.ChangePassword(ctx, u.ID, "not the password", "replacement pw")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := users.ChangePassword(ctx, u.ID, "original password", "short")
		require.ErrorIs(t, err, service.ErrWeakPassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := users.ChangePassword(ctx, "no-such-id", "original password", "replacement pw")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("success swaps the credential", func(t *testing.T) {
		require.NoError(t, users.ChangePassword(ctx, u.ID, "original password", "replacement pw"))

		_, err := users.Login(ctx, "ren@campus.edu", "original password")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)

		logged, err := users.Login(ctx, "ren@campus.edu", "replacement pw")
		require.NoError(t, err)
		require.Equal(t, u.ID, logged.ID)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := newUserFixture(t)

	_, err := users.Register(ctx, "kim@campus.edu", "Kim", "correct horse battery", domain.RoleStaff)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		u, err := users.Login(ctx, "kim@campus.edu", "correct horse battery")
		require.NoError(t, err)
		require.Equal(t, "kim@campus.edu", u.Email)
		require.Equal(t, domain.RoleStaff, u.Role)
		require.Empty(t, u.PasswordHash)
	})

	t.Run("case-insensitive email", func(t *testing.T) {
		_, err := users.Login(ctx, "KIM@Campus.edu", "correct horse battery")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := users.Login(ctx, "kim@campus.edu", "wrong password!")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		// Indistinguishable from a wrong password on purpose.
		_, err := users.Login(ctx, "nobody@campus.edu", "correct horse battery")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}
