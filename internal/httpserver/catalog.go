package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Dhia7/weary-sub000/internal/service"
)

type CategoryHTTP struct {
	Svc *service.CategoryService
}

func (h *CategoryHTTP) List(c echo.Context) error {
	cats, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"categories": cats})
}

func (h *CategoryHTTP) Get(c echo.Context) error {
	cat, err := h.Svc.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"category": cat})
}

func (h *CategoryHTTP) Create(c echo.Context) error {
	var req service.CategoryInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	cat, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return created(c, "Category created successfully", echo.Map{"category": cat})
}

func (h *CategoryHTTP) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.CategoryInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	cat, err := h.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Category updated successfully", echo.Map{"category": cat})
}

func (h *CategoryHTTP) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return done(c, "Category deleted successfully")
}

type CollectionHTTP struct {
	Svc *service.CollectionService
}

func (h *CollectionHTTP) List(c echo.Context) error {
	cols, err := h.Svc.List(c.Request().Context(), queryBool(c, "featured"))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"collections": cols})
}

func (h *CollectionHTTP) Get(c echo.Context) error {
	col, err := h.Svc.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"collection": col})
}

func (h *CollectionHTTP) Create(c echo.Context) error {
	var req service.CategoryInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	col, err := h.Svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return created(c, "Collection created successfully", echo.Map{"collection": col})
}

func (h *CollectionHTTP) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.CategoryInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	col, err := h.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Collection updated successfully", echo.Map{"collection": col})
}

func (h *CollectionHTTP) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return done(c, "Collection deleted successfully")
}

func (h *CollectionHTTP) AddProducts(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		ProductIDs []uint `json:"productIds"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	col, err := h.Svc.AddProducts(c.Request().Context(), id, req.ProductIDs)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Products added to collection", echo.Map{"collection": col})
}

func (h *CollectionHTTP) RemoveProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	productID, err := parseID(c, "productId")
	if err != nil {
		return err
	}
	if err := h.Svc.RemoveProduct(c.Request().Context(), id, productID); err != nil {
		return err
	}
	return done(c, "Product removed from collection")
}
