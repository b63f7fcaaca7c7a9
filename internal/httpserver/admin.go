package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/service"
	"github.com/Dhia7/weary-sub000/internal/util"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

type AdminHTTP struct {
	Svc    *service.AdminService
	Orders *service.OrderService
}

func (h *AdminHTTP) Dashboard(c echo.Context) error {
	d, err := h.Svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, d)
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	res, err := h.Svc.ListUsers(c.Request().Context(),
		repo.UserFilter{Query: strings.TrimSpace(c.QueryParam("q")), Role: c.QueryParam("role")},
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	)
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"users": res.Items, "pagination": res.Pagination})
}

func (h *AdminHTTP) GetUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.Svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"user": u})
}

func (h *AdminHTTP) UpdateUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.AdminUserInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	u, err := h.Svc.UpdateUser(c.Request().Context(), authmw.UserID(c), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User updated successfully", echo.Map{"user": u})
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteUser(ctx, authmw.UserID(c), id); err != nil {
		l.Warn("delete_user_failed", "user_id", id, "error", err)
		return err
	}
	l.Info("user_deleted", "user_id", id)
	return done(c, "User deleted successfully")
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	res, err := h.Orders.List(c.Request().Context(),
		repo.OrderFilter{Status: c.QueryParam("status")},
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	)
	if err != nil {
		return err
	}
	return ok(c, orderPage(res))
}

func (h *AdminHTTP) UpdateOrderStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.StatusInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	order, err := h.Orders.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order status updated", echo.Map{"order": order})
}

func (h *AdminHTTP) DeleteOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Orders.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return done(c, "Order deleted successfully")
}
