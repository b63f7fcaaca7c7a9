package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Dhia7/weary-sub000/internal/models"
	jwthelp "github.com/Dhia7/weary-sub000/pkg/jwt"
	"github.com/Dhia7/weary-sub000/pkg/logging"
	"github.com/Dhia7/weary-sub000/pkg/tokens"
)

const (
	CtxToken     = "token"
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxViaCookie = "auth_via_cookie"
)

// UserLookup resolves the account behind a token so deactivated users are
// rejected before their access token expires.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type Middleware struct {
	Secret []byte
	Users  UserLookup
}

func New(secret []byte, users UserLookup) *Middleware {
	return &Middleware{Secret: secret, Users: users}
}

func (m *Middleware) jwtConfig(optional bool) echojwt.Config {
	return echojwt.Config{
		SigningKey:    m.Secret,
		SigningMethod: echojwt.AlgorithmHS256,
		ContextKey:    CtxToken,
		TokenLookup:   "header:Authorization:Bearer ,cookie:" + jwthelp.AccessCookie,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
		ErrorHandler: func(c echo.Context, err error) error {
			if optional {
				return nil
			}
			msg := "invalid or expired token"
			if !hasCredentials(c) {
				msg = "authentication required"
			}
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "reason", msg, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msg)
		},
		ContinueOnIgnoredError: optional,
	}
}

// RequireAuth accepts a bearer header or the access token cookie and stores
// the user id and current role in the context.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return echojwt.WithConfig(m.jwtConfig(false))(func(c echo.Context) error {
		if err := m.attach(c); err != nil {
			return err
		}
		return next(c)
	})
}

// Optional identifies the caller when a valid token is present and lets anonymous requests through.
func (m *Middleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return echojwt.WithConfig(m.jwtConfig(true))(func(c echo.Context) error {
		if _, ok := c.Get(CtxToken).(*jwt.Token); ok {
			if err := m.attach(c); err != nil {
				c.Set(CtxUserID, nil)
				c.Set(CtxRole, nil)
			}
		}
		return next(c)
	})
}

func (m *Middleware) attach(c echo.Context) error {
	l := logging.FromContext(c.Request().Context())

	token, ok := c.Get(CtxToken).(*jwt.Token)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
	claims, ok := token.Claims.(*tokens.AccessClaims)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
	id, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
	}

	role := claims.Role
	if m.Users != nil {
		user, err := m.Users.GetUserByID(c.Request().Context(), id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("auth_failed", "status", 401, "reason", "user no longer exists", "user_id", id)
			return echo.NewHTTPError(http.StatusUnauthorized, "user no longer exists")
		}
		if err != nil {
			return err
		}
		if !user.IsActive {
			l.Warn("auth_failed", "status", 403, "reason", "account deactivated", "user_id", id)
			return echo.NewHTTPError(http.StatusForbidden, "account is deactivated")
		}
		role = user.Role
	}

	c.Set(CtxUserID, id)
	c.Set(CtxRole, role)
	c.Set(CtxViaCookie, strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization)) == "")
	return nil
}

func hasCredentials(c echo.Context) bool {
	if strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization)) != "" {
		return true
	}
	ck, err := c.Cookie(jwthelp.AccessCookie)
	return err == nil && ck.Value != ""
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireRole(models.RoleAdmin)(next)
}

func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, r := range roles {
				if r == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
		}
	}
}

func UserID(c echo.Context) uint {
	id, _ := c.Get(CtxUserID).(uint)
	return id
}

func Role(c echo.Context) string {
	role, _ := c.Get(CtxRole).(string)
	return role
}

func IsAdmin(c echo.Context) bool { return Role(c) == models.RoleAdmin }

// ViaCookie reports whether the request was authenticated by the access token cookie.
func ViaCookie(c echo.Context) bool {
	v, _ := c.Get(CtxViaCookie).(bool)
	return v
}
