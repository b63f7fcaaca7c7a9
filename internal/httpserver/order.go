package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/service"
	"github.com/Dhia7/weary-sub000/internal/util"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func orderPage(p *service.Paged[models.Order]) echo.Map {
	return echo.Map{"orders": p.Items, "pagination": p.Pagination}
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req service.CreateOrderInput
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	order, err := h.Svc.Create(ctx, authmw.UserID(c), req)
	if err != nil {
		return err
	}
	return created(c, "Order placed successfully", echo.Map{"order": order})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	res, err := h.Svc.List(c.Request().Context(),
		repo.OrderFilter{UserID: authmw.UserID(c), Status: c.QueryParam("status")},
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	)
	if err != nil {
		return err
	}
	return ok(c, orderPage(res))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.Svc.Get(c.Request().Context(), authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"order": order})
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.Svc.Cancel(c.Request().Context(), authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order cancelled", echo.Map{"order": order})
}
