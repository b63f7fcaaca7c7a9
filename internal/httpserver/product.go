package httpserver

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/service"
	"github.com/Dhia7/weary-sub000/internal/util"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProductHTTP struct {
	Svc     *service.ProductService
	Uploads *Uploads
}

func productPage(p *service.Paged[models.Product]) echo.Map {
	items := p.Items
	if items == nil {
		items = []models.Product{}
	}
	return echo.Map{"products": items, "pagination": p.Pagination}
}

func queryFloat(c echo.Context, name string) (*float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return nil, badRequest("invalid " + name)
	}
	return &f, nil
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()

	minPrice, err := queryFloat(c, "minPrice")
	if err != nil {
		return err
	}
	maxPrice, err := queryFloat(c, "maxPrice")
	if err != nil {
		return err
	}
	sort := c.QueryParam("sort")
	switch sort {
	case "", repo.SortNewest, repo.SortPriceAsc, repo.SortPriceDesc, repo.SortName:
	default:
		return badRequest("sort must be one of newest, price_asc, price_desc, name")
	}

	res, err := h.Svc.List(ctx, service.ProductQuery{
		Page:  util.ParseIntDefault(c.QueryParam("page"), 1),
		Limit: util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
		Filter: repo.ProductFilter{
			Category:        c.QueryParam("category"),
			Collection:      c.QueryParam("collection"),
			Query:           strings.TrimSpace(c.QueryParam("q")),
			Size:            c.QueryParam("size"),
			MinPrice:        minPrice,
			MaxPrice:        maxPrice,
			Featured:        queryBool(c, "featured"),
			IncludeInactive: authmw.IsAdmin(c) && c.QueryParam("includeInactive") == "true",
			Sort:            sort,
		},
	})
	if err != nil {
		return err
	}
	return ok(c, productPage(res))
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	res, err := h.Svc.Search(c.Request().Context(),
		c.QueryParam("q"),
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	)
	if err != nil {
		return err
	}
	return ok(c, productPage(res))
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	p, err := h.Svc.Get(c.Request().Context(), c.Param("id"), authmw.IsAdmin(c))
	if err != nil {
		return err
	}
	return ok(c, echo.Map{"product": p})
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_failed", "status", 400, "reason", "invalid body", "error", err)
		return badRequest("invalid body")
	}
	p, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	l.Info("product_created", "product_id", p.ID)
	return created(c, "Product created successfully", echo.Map{"product": p})
}

func (h *ProductHTTP) UpdateProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	p, err := h.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Product updated successfully", echo.Map{"product": p})
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return done(c, "Product deleted successfully")
}

func (h *ProductHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.upload_image")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Exists(ctx, id); err != nil {
		return err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest("image file is required")
	}
	url, err := h.Uploads.Save(fh, "products")
	if err != nil {
		l.Warn("upload_failed", "product_id", id, "error", err)
		return err
	}

	p, err := h.Svc.SetImage(ctx, id, url)
	if err != nil {
		h.Uploads.Remove(url)
		return err
	}
	l.Info("image_uploaded", "product_id", id, "path", url)
	return respond(c, http.StatusOK, "Image uploaded successfully", echo.Map{"product": p, "image": url})
}

func (h *ProductHTTP) ExportProducts(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.Svc.Export(c.Request().Context(), &buf); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ProductHTTP) ImportProducts(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("xlsx file is required")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
		return badRequest("only .xlsx files are accepted")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := h.Svc.Import(c.Request().Context(), f, fh.Size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Import finished", res)
}
