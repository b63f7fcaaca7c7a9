package service

import (
	"context"
	"strings"

	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/util"
)

type CategoryService struct {
	Repo *repo.GormRepo
}

type CategoryInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsFeatured  *bool   `json:"isFeatured"`
}

// groupFields is what categories and collections have in common.
type groupFields struct {
	Name, Slug, Description, Image *string
}

func (in CategoryInput) apply(g groupFields) error {
	if in.Name != nil {
		*g.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		*g.Slug = util.Slugify(*in.Slug)
	}
	if *g.Slug == "" {
		*g.Slug = util.Slugify(*g.Name)
	}
	if in.Description != nil {
		*g.Description = *in.Description
	}
	if in.Image != nil {
		*g.Image = strings.TrimSpace(*in.Image)
	}
	if *g.Name == "" {
		return fail(ErrValidation, "name is required")
	}
	if *g.Slug == "" {
		return fail(ErrValidation, "slug could not be derived from name")
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.Repo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

func (s *CategoryService) checkUnique(ctx context.Context, c *models.Category) error {
	taken, err := s.Repo.CategoryNameTaken(ctx, c.Name, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return fail(ErrConflict, "category with name %q already exists", c.Name)
	}
	taken, err = s.Repo.CategorySlugTaken(ctx, c.Slug, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return fail(ErrConflict, "category with slug %q already exists", c.Slug)
	}
	return nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	c := &models.Category{}
	if err := in.apply(groupFields{&c.Name, &c.Slug, &c.Description, &c.Image}); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		if isDuplicate(err) {
			return nil, fail(ErrConflict, "category already exists")
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	if err := in.apply(groupFields{&c.Name, &c.Slug, &c.Description, &c.Image}); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		if isDuplicate(err) {
			return nil, fail(ErrConflict, "category already exists")
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return notFound(err, "category")
	}
	return nil
}

type CollectionService struct {
	Repo *repo.GormRepo
}

func (s *CollectionService) List(ctx context.Context, featured *bool) ([]models.Collection, error) {
	return s.Repo.ListCollections(ctx, featured)
}

func (s *CollectionService) GetBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	c, err := s.Repo.GetCollectionBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "collection")
	}
	return c, nil
}

func (s *CollectionService) checkUnique(ctx context.Context, c *models.Collection) error {
	taken, err := s.Repo.CollectionNameTaken(ctx, c.Name, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return fail(ErrConflict, "collection with name %q already exists", c.Name)
	}
	taken, err = s.Repo.CollectionSlugTaken(ctx, c.Slug, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return fail(ErrConflict, "collection with slug %q already exists", c.Slug)
	}
	return nil
}

func (s *CollectionService) Create(ctx context.Context, in CategoryInput) (*models.Collection, error) {
	c := &models.Collection{}
	if err := in.apply(groupFields{&c.Name, &c.Slug, &c.Description, &c.Image}); err != nil {
		return nil, err
	}
	if in.IsFeatured != nil {
		c.IsFeatured = *in.IsFeatured
	}
	if err := s.checkUnique(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateCollection(ctx, c); err != nil {
		if isDuplicate(err) {
			return nil, fail(ErrConflict, "collection already exists")
		}
		return nil, err
	}
	return c, nil
}

func (s *CollectionService) Update(ctx context.Context, id uint, in CategoryInput) (*models.Collection, error) {
	c, err := s.Repo.GetCollection(ctx, id)
	if err != nil {
		return nil, notFound(err, "collection")
	}
	if err := in.apply(groupFields{&c.Name, &c.Slug, &c.Description, &c.Image}); err != nil {
		return nil, err
	}
	if in.IsFeatured != nil {
		c.IsFeatured = *in.IsFeatured
	}
	if err := s.checkUnique(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveCollection(ctx, c); err != nil {
		if isDuplicate(err) {
			return nil, fail(ErrConflict, "collection already exists")
		}
		return nil, err
	}
	return c, nil
}

func (s *CollectionService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCollection(ctx, id); err != nil {
		return notFound(err, "collection")
	}
	return nil
}

func (s *CollectionService) AddProducts(ctx context.Context, id uint, productIDs []uint) (*models.Collection, error) {
	c, err := s.Repo.GetCollection(ctx, id)
	if err != nil {
		return nil, notFound(err, "collection")
	}
	productIDs = dedupe(productIDs)
	if len(productIDs) == 0 {
		return nil, fail(ErrValidation, "productIds is required")
	}
	products, err := s.Repo.ProductsByIDs(ctx, productIDs, true)
	if err != nil {
		return nil, err
	}
	if len(products) != len(productIDs) {
		return nil, fail(ErrValidation, "one or more products do not exist")
	}
	if err := s.Repo.AddCollectionProducts(ctx, c, products); err != nil {
		return nil, err
	}
	return s.GetBySlug(ctx, c.Slug)
}

func (s *CollectionService) RemoveProduct(ctx context.Context, id, productID uint) error {
	if _, err := s.Repo.GetCollection(ctx, id); err != nil {
		return notFound(err, "collection")
	}
	removed, err := s.Repo.RemoveCollectionProduct(ctx, id, productID)
	if err != nil {
		return err
	}
	if !removed {
		return fail(ErrNotFound, "product is not in this collection")
	}
	return nil
}
