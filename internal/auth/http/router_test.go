package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusfound/campusfound/internal/auth/domain"
	authhttp "github.com/campusfound/campusfound/internal/auth/http"
	"github.com/campusfound/campusfound/internal/auth/revocation"
	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/internal/auth/store/drivers/sqlite"
	"github.com/campusfound/campusfound/pkg/jwtx"
	"github.com/campusfound/campusfound/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "campusfound-auth"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fixture struct {
	server *httptest.Server
	users  *service.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec(testSecret, testIssuer)
	require.NoError(t, err)

	registry := revocation.NewMemory(codec, jwtx.DefaultRefreshTTL)

	users := &service.UserService{Users: st.Users()}
	sessions := &service.SessionService{
		Codec:    codec,
		Registry: registry,
		Users:    st.Users(),
		Issuer:   testIssuer,
	}

	logger := slogx.New(slogx.Config{Service: "auth-test", Level: "error"})

	router := authhttp.NewRouter("test", st, registry, logger)
	router.UserService = users
	router.SessionService = sessions
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &fixture{server: srv, users: users}
}

func (f *fixture) postJSON(t *testing.T, path, bearer string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (f *fixture) get(t *testing.T, path, bearer string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type tokenPairBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type sessionBody struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
	Tokens tokenPairBody `json:"tokens"`
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func register(t *testing.T, f *fixture, email, name, password string) sessionBody {
	t.Helper()

	resp := f.postJSON(t, "/auth/register", "", map[string]string{
		"email": email, "name": name, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[sessionBody](t, resp)
}

func TestRegisterLoginAndMe(t *testing.T) {
	f := newFixture(t)

	created := register(t, f, "jo@campus.edu", "Jo", "a long password")
	require.Equal(t, "jo@campus.edu", created.User.Email)
	require.Equal(t, "STUDENT", created.User.Role)
	require.NotEmpty(t, created.Tokens.AccessToken)
	require.NotEmpty(t, created.Tokens.RefreshToken)
	require.Equal(t, "Bearer", created.Tokens.TokenType)
	// expires_in is seconds on the wire, not a serialized time.Duration.
	require.Equal(t, int(jwtx.DefaultAccessTTL.Seconds()), created.Tokens.ExpiresIn)

	t.Run("registration never leaks the password hash", func(t *testing.T) {
		resp := f.get(t, "/auth/me", created.Tokens.AccessToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		require.NotContains(t, string(raw), "password")
		require.NotContains(t, string(raw), "argon2")
	})

	t.Run("login with the same credentials", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/login", "", map[string]string{
			"email": "jo@campus.edu", "password": "a long password",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		session := decodeBody[sessionBody](t, resp)
		require.Equal(t, created.User.ID, session.User.ID)

		me := f.get(t, "/auth/me", session.Tokens.AccessToken)
		require.Equal(t, http.StatusOK, me.StatusCode)
		me.Body.Close()
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/login", "", map[string]string{
			"email": "jo@campus.edu", "password": "not the password",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "invalid_credentials", decodeBody[errorBody](t, resp).Error)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/register", "", map[string]string{
			"email": "jo@campus.edu", "name": "Other Jo", "password": "a long password",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Equal(t, "email_taken", decodeBody[errorBody](t, resp).Error)
	})
}

func TestMeRequiresAccessToken(t *testing.T) {
	f := newFixture(t)
	session := register(t, f, "amy@campus.edu", "Amy", "a long password")

	t.Run("no token", func(t *testing.T) {
		resp := f.get(t, "/auth/me", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "invalid_request")
		resp.Body.Close()
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := f.get(t, "/auth/me", "garbage.token.value")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "invalid_token")
		resp.Body.Close()
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		resp := f.get(t, "/auth/me", session.Tokens.RefreshToken)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "invalid_token", decodeBody[errorBody](t, resp).Error)
	})
}

func TestRefreshFlow(t *testing.T) {
	f := newFixture(t)
	session := register(t, f, "lee@campus.edu", "Lee", "a long password")

	resp := f.postJSON(t, "/auth/refresh", "", map[string]string{
		"refresh_token": session.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := decodeBody[tokenPairBody](t, resp)
	require.NotEqual(t, session.Tokens.RefreshToken, rotated.RefreshToken)
	require.Equal(t, 900, rotated.ExpiresIn)

	t.Run("new access token works", func(t *testing.T) {
		me := f.get(t, "/auth/me", rotated.AccessToken)
		require.Equal(t, http.StatusOK, me.StatusCode)
		me.Body.Close()
	})

	t.Run("old refresh token is single-use", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/refresh", "", map[string]string{
			"refresh_token": session.Tokens.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "token_revoked", decodeBody[errorBody](t, resp).Error)
	})

	t.Run("missing refresh token", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/refresh", "", map[string]string{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestLogoutFlow(t *testing.T) {
	f := newFixture(t)
	session := register(t, f, "pat@campus.edu", "Pat", "a long password")

	resp := f.postJSON(t, "/auth/logout", session.Tokens.AccessToken, map[string]string{
		"refresh_token": session.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	t.Run("access token is dead", func(t *testing.T) {
		me := f.get(t, "/auth/me", session.Tokens.AccessToken)
		require.Equal(t, http.StatusUnauthorized, me.StatusCode)
		require.Contains(t, me.Header.Get("WWW-Authenticate"), "token revoked")
		me.Body.Close()
	})

	t.Run("refresh token is dead", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/refresh", "", map[string]string{
			"refresh_token": session.Tokens.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("logout again is still 204", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/logout", session.Tokens.AccessToken, map[string]string{
			"refresh_token": session.Tokens.RefreshToken,
		})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestChangePasswordFlow(t *testing.T) {
	f := newFixture(t)
	session := register(t, f, "mel@campus.edu", "Mel", "original password")

	t.Run("requires authentication", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/password", "", map[string]string{
			"current_password": "original password", "new_password": "replacement pw",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("wrong current password", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/password", session.Tokens.AccessToken, map[string]string{
			"current_password": "not the password", "new_password": "replacement pw",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "invalid_credentials", decodeBody[errorBody](t, resp).Error)
	})

	resp := f.postJSON(t, "/auth/password", session.Tokens.AccessToken, map[string]string{
		"current_password": "original password",
		"new_password":     "replacement pw",
		"refresh_token":    session.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	t.Run("old session is revoked", func(t *testing.T) {
		me := f.get(t, "/auth/me", session.Tokens.AccessToken)
		require.Equal(t, http.StatusUnauthorized, me.StatusCode)
		me.Body.Close()

		refresh := f.postJSON(t, "/auth/refresh", "", map[string]string{
			"refresh_token": session.Tokens.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, refresh.StatusCode)
		refresh.Body.Close()
	})

	t.Run("only the new password signs in", func(t *testing.T) {
		resp := f.postJSON(t, "/auth/login", "", map[string]string{
			"email": "mel@campus.edu", "password": "original password",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()

		resp = f.postJSON(t, "/auth/login", "", map[string]string{
			"email": "mel@campus.edu", "password": "replacement pw",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestUsersListIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	student := register(t, f, "stu@campus.edu", "Stu", "a long password")

	t.Run("student is forbidden", func(t *testing.T) {
		resp := f.get(t, "/auth/users", student.Tokens.AccessToken)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, "insufficient_role", decodeBody[errorBody](t, resp).Error)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		resp := f.get(t, "/auth/users", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("admin sees everyone", func(t *testing.T) {
		// Admin accounts are provisioned out of band, so create one through
		// the service and sign in over HTTP.
		_, err := f.users.Register(t.Context(),
			"ops@campus.edu", "Ops", "a long password", domain.RoleAdmin)
		require.NoError(t, err)

		login := f.postJSON(t, "/auth/login", "", map[string]string{
			"email": "ops@campus.edu", "password": "a long password",
		})
		require.Equal(t, http.StatusOK, login.StatusCode)
		admin := decodeBody[sessionBody](t, login)

		resp := f.get(t, "/auth/users", admin.Tokens.AccessToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Users []struct {
				Email string `json:"email"`
			} `json:"users"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Len(t, body.Users, 2)
	})
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp := f.get(t, path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		body := decodeBody[map[string]any](t, resp)
		require.Equal(t, "ok", body["status"], path)
	}
}
