package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
	"github.com/Dhia7/weary-sub000/internal/service"
	jwthelp "github.com/Dhia7/weary-sub000/pkg/jwt"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

type AuthHTTP struct {
	Svc           *service.AuthService
	SecureCookies bool
}

func (h *AuthHTTP) setCookies(c echo.Context, res *service.AuthResult) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, res.AccessToken, "/", res.AccessExp, h.SecureCookies))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, h.SecureCookies))
}

func (h *AuthHTTP) clearCookies(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/", h.SecureCookies))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/", h.SecureCookies))
}

func authPayload(res *service.AuthResult) echo.Map {
	return echo.Map{
		"user":         res.User,
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		return err
	}
	h.setCookies(c, res)
	return created(c, "User registered successfully", authPayload(res))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setCookies(c, res)
	return respond(c, http.StatusOK, "Login successful", authPayload(res))
}

func refreshTokenFrom(c echo.Context) string {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.Bind(&req)
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	res, err := h.Svc.Refresh(ctx, refreshTokenFrom(c))
	if err != nil {
		h.clearCookies(c)
		return err
	}
	h.setCookies(c, res)
	return ok(c, authPayload(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if err := h.Svc.Logout(ctx, refreshTokenFrom(c)); err != nil {
		l.Error("logout_failed", "status", 200, "reason", "cannot revoke refresh token", "error", err)
	}
	h.clearCookies(c)
	return done(c, "Logged out successfully")
}

func (h *AuthHTTP) Me(c echo.Context) error {
	user, err := h.Svc.Me(c.Request().Context(), authmw.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"user": user})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	if err := h.Svc.ChangePassword(ctx, authmw.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	h.clearCookies(c)
	return done(c, "Password changed successfully, please log in again")
}
