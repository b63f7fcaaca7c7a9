package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
	"github.com/Dhia7/weary-sub000/internal/service"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) GetProfile(c echo.Context) error {
	user, err := h.Svc.Profile(c.Request().Context(), authmw.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"user": user})
}

func (h *UserHTTP) UpdateProfile(c echo.Context) error {
	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	user, err := h.Svc.UpdateProfile(c.Request().Context(), authmw.UserID(c), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile updated successfully", echo.Map{"user": user})
}

func (h *UserHTTP) ListAddresses(c echo.Context) error {
	list, err := h.Svc.Addresses(c.Request().Context(), authmw.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"addresses": list})
}

func (h *UserHTTP) CreateAddress(c echo.Context) error {
	var req service.AddressInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	addr, err := h.Svc.CreateAddress(c.Request().Context(), authmw.UserID(c), req)
	if err != nil {
		return err
	}
	return created(c, "Address added successfully", echo.Map{"address": addr})
}

func (h *UserHTTP) UpdateAddress(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.AddressInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	addr, err := h.Svc.UpdateAddress(c.Request().Context(), authmw.UserID(c), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Address updated successfully", echo.Map{"address": addr})
}

func (h *UserHTTP) SetDefaultAddress(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	addr, err := h.Svc.SetDefaultAddress(c.Request().Context(), authmw.UserID(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Default address updated", echo.Map{"address": addr})
}

func (h *UserHTTP) DeleteAddress(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteAddress(c.Request().Context(), authmw.UserID(c), id); err != nil {
		return err
	}
	return done(c, "Address deleted successfully")
}
