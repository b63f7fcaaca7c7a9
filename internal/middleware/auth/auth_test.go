package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Dhia7/weary-sub000/internal/models"
	jwthelp "github.com/Dhia7/weary-sub000/pkg/jwt"
	"github.com/Dhia7/weary-sub000/pkg/tokens"
)

var secret = []byte("test-secret")

type fakeUsers map[uint]*models.User

func (f fakeUsers) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func sign(t *testing.T, id uint, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.SignAccess(id, role, exp, secret)
	require.NoError(t, err)
	return tok
}

func newServer(users UserLookup) *echo.Echo {
	e := echo.New()
	m := New(secret, users)
	whoami := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": UserID(c), "role": Role(c), "cookie": ViaCookie(c)})
	}
	e.GET("/private", whoami, m.RequireAuth)
	e.GET("/admin", whoami, m.RequireAuth, RequireAdmin)
	e.GET("/public", whoami, m.Optional)
	return e
}

func do(e *echo.Echo, path string, mod func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }
}

func TestRequireAuth(t *testing.T) {
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleUser, IsActive: true},
		2: {ID: 2, Role: models.RoleAdmin, IsActive: true},
		3: {ID: 3, Role: models.RoleUser, IsActive: false},
	}
	e := newServer(users)

	t.Run("missing token", func(t *testing.T) {
		rec := do(e, "/private", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := do(e, "/private", bearer("not-a-jwt"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		rec := do(e, "/private", bearer(sign(t, 1, models.RoleUser, time.Now().Add(-time.Minute))))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		rec := do(e, "/private", bearer(sign(t, 1, models.RoleUser, time.Now().Add(time.Minute))))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":1,"role":"user","cookie":false}`, rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		tok := sign(t, 1, models.RoleUser, time.Now().Add(time.Minute))
		rec := do(e, "/private", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: jwthelp.AccessCookie, Value: tok})
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":1,"role":"user","cookie":true}`, rec.Body.String())
	})

	t.Run("deactivated user", func(t *testing.T) {
		rec := do(e, "/private", bearer(sign(t, 3, models.RoleUser, time.Now().Add(time.Minute))))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		rec := do(e, "/private", bearer(sign(t, 99, models.RoleUser, time.Now().Add(time.Minute))))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleUser, IsActive: true},
		2: {ID: 2, Role: models.RoleAdmin, IsActive: true},
	}
	e := newServer(users)

	rec := do(e, "/admin", bearer(sign(t, 1, models.RoleUser, time.Now().Add(time.Minute))))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, "/admin", bearer(sign(t, 2, models.RoleAdmin, time.Now().Add(time.Minute))))
	assert.Equal(t, http.StatusOK, rec.Code)

	// the stored role wins over a stale claim
	rec = do(e, "/admin", bearer(sign(t, 1, models.RoleAdmin, time.Now().Add(time.Minute))))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOptional(t *testing.T) {
	e := newServer(fakeUsers{2: {ID: 2, Role: models.RoleAdmin, IsActive: true}})

	rec := do(e, "/public", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0,"role":"","cookie":false}`, rec.Body.String())

	rec = do(e, "/public", bearer("broken"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0,"role":"","cookie":false}`, rec.Body.String())

	rec = do(e, "/public", bearer(sign(t, 2, models.RoleAdmin, time.Now().Add(time.Minute))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"role":"admin","cookie":false}`, rec.Body.String())
}
