package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwthelp "github.com/Dhia7/weary-sub000/pkg/jwt"
)

func TestRegister(t *testing.T) {
	app := newTestApp(t)
	body := map[string]string{"email": "New@Example.com ", "password": "secret123", "firstName": "Ann", "lastName": "Lee"}

	code, res := app.call(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, code, res.Message)
	assert.True(t, res.Success)
	data := decode[struct {
		User struct {
			Email        string `json:"email"`
			PasswordHash string `json:"passwordHash"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
	}](t, res.Data)
	assert.Equal(t, "new@example.com", data.User.Email)
	assert.Empty(t, data.User.PasswordHash)
	assert.NotEmpty(t, data.AccessToken)

	code, res = app.call(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)

	code, _ = app.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "x@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRegisterSetsCookies(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		jsonBody(t, map[string]string{"email": "c@example.com", "password": "secret123", "firstName": "C", "lastName": "D"}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	names := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = c.HttpOnly
	}
	assert.True(t, names[jwthelp.AccessCookie])
	assert.True(t, names[jwthelp.RefreshCookie])
}

func TestLoginAndMe(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "me@example.com", "user")

	code, res := app.call(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, res.Success)

	code, _ = app.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "me@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	token := app.login(t, "me@example.com")
	code, res = app.call(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}](t, res.Data)
	assert.Equal(t, "me@example.com", me.User.Email)
}

func TestLoginLockout(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "lock@example.com", "user")
	bad := map[string]string{"email": "lock@example.com", "password": "wrong"}

	code, _ := app.call(t, http.MethodPost, "/api/auth/login", "", bad)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = app.call(t, http.MethodPost, "/api/auth/login", "", bad)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = app.call(t, http.MethodPost, "/api/auth/login", "", bad)
	assert.Equal(t, http.StatusLocked, code)

	code, _ = app.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "lock@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusLocked, code)
}

func TestRefreshAndLogout(t *testing.T) {
	app := newTestApp(t)
	code, res := app.call(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "r@example.com", "password": "secret123", "firstName": "R", "lastName": "S"})
	require.Equal(t, http.StatusCreated, code)
	first := decode[struct {
		RefreshToken string `json:"refreshToken"`
	}](t, res.Data)

	code, res = app.call(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": first.RefreshToken})
	require.Equal(t, http.StatusOK, code, res.Message)
	second := decode[struct {
		RefreshToken string `json:"refreshToken"`
	}](t, res.Data)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	code, _ = app.call(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code, "a rotated token cannot be reused")

	code, _ = app.call(t, http.MethodPost, "/api/auth/logout", "", map[string]string{"refreshToken": second.RefreshToken})
	assert.Equal(t, http.StatusOK, code)
	code, _ = app.call(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": second.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}
