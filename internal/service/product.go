package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Dhia7/weary-sub000/internal/events"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/util"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

type ProductService struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Indexer  ProductIndexer
	Searcher ProductSearcher
}

type ProductQuery struct {
	Page   int
	Limit  int
	Filter repo.ProductFilter
}

type ProductInput struct {
	Name           *string          `json:"name"`
	Slug           *string          `json:"slug"`
	SKU            *string          `json:"sku"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice"`
	Stock          *int             `json:"stock"`
	SizeStock      map[string]int   `json:"sizeStock"`
	Image          *string          `json:"image"`
	IsActive       *bool            `json:"isActive"`
	IsFeatured     *bool            `json:"isFeatured"`
	CategoryIDs    []uint           `json:"categoryIds"`
	CollectionIDs  []uint           `json:"collectionIds"`
}

func (s *ProductService) List(ctx context.Context, q ProductQuery) (*Paged[models.Product], error) {
	page, limit := util.Normalize(q.Page, q.Limit)
	offset, limit := util.Calculate(page, limit)

	total, items, err := s.Repo.ListProducts(ctx, q.Filter, repo.Page{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &Paged[models.Product]{
		Items:      items,
		Pagination: util.NewPagination(page, limit, total),
	}, nil
}

// Search goes to the search index when one is configured and falls back to the database.
func (s *ProductService) Search(ctx context.Context, query string, page, limit int) (*Paged[models.Product], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fail(ErrValidation, "search query is required")
	}
	page, limit = util.Normalize(page, limit)
	offset, limit := util.Calculate(page, limit)

	if s.Searcher != nil {
		total, ids, err := s.Searcher.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := s.Repo.ProductsByIDs(ctx, ids, false)
			if err != nil {
				return nil, err
			}
			return &Paged[models.Product]{Items: items, Pagination: util.NewPagination(page, limit, total)}, nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "reason", "search index unavailable", "error", err)
	}

	return s.List(ctx, ProductQuery{Page: page, Limit: limit, Filter: repo.ProductFilter{Query: query}})
}

// Get resolves a numeric id or a slug. Inactive products are only visible to admins.
func (s *ProductService) Get(ctx context.Context, idOrSlug string, isAdmin bool) (*models.Product, error) {
	var (
		p   *models.Product
		err error
	)
	if id, convErr := strconv.ParseUint(idOrSlug, 10, 64); convErr == nil {
		p, err = s.Repo.GetProduct(ctx, uint(id))
	} else {
		p, err = s.Repo.GetProductBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !p.IsActive && !isAdmin {
		return nil, fail(ErrNotFound, "product not found")
	}
	return p, nil
}

func validateSizes(sizes map[string]int) error {
	for size, n := range sizes {
		if strings.TrimSpace(size) == "" {
			return fail(ErrValidation, "size labels cannot be empty")
		}
		if n < 0 {
			return fail(ErrValidation, "stock for size %s cannot be negative", size)
		}
	}
	return nil
}

func (s *ProductService) apply(ctx context.Context, p *models.Product, in ProductInput) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Slug != nil {
		p.Slug = util.Slugify(*in.Slug)
	}
	if p.Slug == "" {
		p.Slug = util.Slugify(p.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.CompareAtPrice != nil {
		p.CompareAtPrice = decimal.NewNullDecimal(*in.CompareAtPrice)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.SizeStock != nil {
		if err := validateSizes(in.SizeStock); err != nil {
			return err
		}
		p.SizeStock = datatypes.NewJSONType(in.SizeStock)
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}

	switch {
	case p.Name == "":
		return fail(ErrValidation, "name is required")
	case p.SKU == "":
		return fail(ErrValidation, "sku is required")
	case p.Slug == "":
		return fail(ErrValidation, "slug could not be derived from name")
	case p.Price.IsNegative():
		return fail(ErrValidation, "price cannot be negative")
	case p.CompareAtPrice.Valid && p.CompareAtPrice.Decimal.IsNegative():
		return fail(ErrValidation, "compareAtPrice cannot be negative")
	case p.Stock < 0:
		return fail(ErrValidation, "stock cannot be negative")
	}

	slugTaken, err := s.Repo.ProductSlugTaken(ctx, p.Slug, p.ID)
	if err != nil {
		return err
	}
	if slugTaken {
		return fail(ErrConflict, "product with slug %q already exists", p.Slug)
	}
	skuTaken, err := s.Repo.ProductSKUTaken(ctx, p.SKU, p.ID)
	if err != nil {
		return err
	}
	if skuTaken {
		return fail(ErrConflict, "product with sku %q already exists", p.SKU)
	}
	return nil
}

func (s *ProductService) links(ctx context.Context, in ProductInput) ([]models.Category, []models.Collection, error) {
	var (
		cats []models.Category
		cols []models.Collection
		err  error
	)
	if in.CategoryIDs != nil {
		if cats, err = s.Repo.CategoriesByIDs(ctx, in.CategoryIDs); err != nil {
			return nil, nil, err
		}
		if len(cats) != len(dedupe(in.CategoryIDs)) {
			return nil, nil, fail(ErrValidation, "one or more categories do not exist")
		}
	}
	if in.CollectionIDs != nil {
		if cols, err = s.Repo.CollectionsByIDs(ctx, in.CollectionIDs); err != nil {
			return nil, nil, err
		}
		if len(cols) != len(dedupe(in.CollectionIDs)) {
			return nil, nil, fail(ErrValidation, "one or more collections do not exist")
		}
	}
	return cats, cols, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Price == nil {
		return nil, fail(ErrValidation, "price is required")
	}
	p := &models.Product{
		IsActive:  true,
		SizeStock: datatypes.NewJSONType(map[string]int{}),
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	cats, cols, err := s.links(ctx, in)
	if err != nil {
		return nil, err
	}
	p.Categories = cats
	p.Collections = cols

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		if isDuplicate(err) {
			return nil, fail(ErrConflict, "product with this sku or slug already exists")
		}
		return nil, err
	}

	created, err := s.Repo.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, created)
	publish(ctx, s.Events, events.TopicProduct, created.ID, "product_created", map[string]any{"sku": created.SKU})
	return created, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	cats, cols, err := s.links(ctx, in)
	if err != nil {
		return nil, err
	}

	err = s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		if err := tx.SaveProduct(ctx, p); err != nil {
			return err
		}
		return tx.ReplaceProductLinks(ctx, p, cats, cols)
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, fail(ErrConflict, "product with this sku or slug already exists")
		}
		return nil, err
	}

	updated, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, updated)
	publish(ctx, s.Events, events.TopicProduct, updated.ID, "product_updated", nil)
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}
	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search_unindex_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProduct, id, "product_deleted", nil)
	return nil
}

func (s *ProductService) SetImage(ctx context.Context, id uint, image string) (*models.Product, error) {
	if err := s.Repo.UpdateProductImage(ctx, id, image); err != nil {
		return nil, notFound(err, "product")
	}
	return s.Repo.GetProduct(ctx, id)
}

// Exists is used by upload handlers before writing anything to disk.
func (s *ProductService) Exists(ctx context.Context, id uint) error {
	if _, err := s.Repo.GetProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}
	return nil
}

func (s *ProductService) reindex(ctx context.Context, p *models.Product) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Error("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
