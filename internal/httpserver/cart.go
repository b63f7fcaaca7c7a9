package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
	"github.com/Dhia7/weary-sub000/internal/service"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	view, err := h.Svc.Get(c.Request().Context(), authmw.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req struct {
		ProductID uint   `json:"productId"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_failed", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	view, err := h.Svc.Add(ctx, authmw.UserID(c), req.ProductID, req.Quantity, req.Size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Item added to cart", view)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	id, err := parseID(c, "itemId")
	if err != nil {
		return err
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	if req.Quantity == nil {
		return badRequest("quantity is required")
	}
	view, err := h.Svc.UpdateQuantity(c.Request().Context(), authmw.UserID(c), id, *req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Cart updated", view)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	id, err := parseID(c, "itemId")
	if err != nil {
		return err
	}
	view, err := h.Svc.Remove(c.Request().Context(), authmw.UserID(c), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Item removed from cart", view)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	if err := h.Svc.Clear(c.Request().Context(), authmw.UserID(c)); err != nil {
		return err
	}
	return done(c, "Cart cleared")
}

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) List(c echo.Context) error {
	items, err := h.Svc.List(c.Request().Context(), authmw.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"items": items})
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	var req struct {
		ProductID uint `json:"productId"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	item, err := h.Svc.Add(c.Request().Context(), authmw.UserID(c), req.ProductID)
	if err != nil {
		return err
	}
	return created(c, "Added to wishlist", echo.Map{"item": item})
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	productID, err := parseID(c, "productId")
	if err != nil {
		return err
	}
	if err := h.Svc.Remove(c.Request().Context(), authmw.UserID(c), productID); err != nil {
		return err
	}
	return done(c, "Removed from wishlist")
}

func (h *WishlistHTTP) Check(c echo.Context) error {
	productID, err := parseID(c, "productId")
	if err != nil {
		return err
	}
	in, err := h.Svc.Contains(c.Request().Context(), authmw.UserID(c), productID)
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"inWishlist": in})
}

func (h *WishlistHTTP) MoveToCart(c echo.Context) error {
	productID, err := parseID(c, "productId")
	if err != nil {
		return err
	}
	var req struct {
		Size string `json:"size"`
	}
	_ = c.Bind(&req)
	view, err := h.Svc.MoveToCart(c.Request().Context(), authmw.UserID(c), productID, req.Size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Moved to cart", view)
}
