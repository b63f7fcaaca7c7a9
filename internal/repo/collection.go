package repo

import (
	"context"

	"github.com/Dhia7/weary-sub000/internal/models"
)

func (r *GormRepo) ListCollections(ctx context.Context, featured *bool) ([]models.Collection, error) {
	q := r.DB.WithContext(ctx).Order("name ASC")
	if featured != nil {
		q = q.Where("is_featured = ?", *featured)
	}
	var cols []models.Collection
	if err := q.Find(&cols).Error; err != nil {
		return nil, err
	}
	counts, err := r.activeProductCounts(ctx, "product_collections", "collection_id")
	if err != nil {
		return nil, err
	}
	for i := range cols {
		cols[i].ProductCount = counts[cols[i].ID]
	}
	return cols, nil
}

func (r *GormRepo) GetCollection(ctx context.Context, id uint) (*models.Collection, error) {
	var c models.Collection
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCollectionBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	var c models.Collection
	if err := r.DB.WithContext(ctx).
		Preload("Products", "is_active = ?", true).
		Where("slug = ?", slug).
		First(&c).Error; err != nil {
		return nil, err
	}
	c.ProductCount = int64(len(c.Products))
	return &c, nil
}

func (r *GormRepo) CollectionNameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	return r.fieldTaken(ctx, &models.Collection{}, "name", name, exceptID)
}

func (r *GormRepo) CollectionSlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	return r.fieldTaken(ctx, &models.Collection{}, "slug", slug, exceptID)
}

func (r *GormRepo) CreateCollection(ctx context.Context, c *models.Collection) error {
	return r.DB.WithContext(ctx).Omit("Products").Create(c).Error
}

func (r *GormRepo) SaveCollection(ctx context.Context, c *models.Collection) error {
	return r.DB.WithContext(ctx).Omit("Products").Save(c).Error
}

func (r *GormRepo) DeleteCollection(ctx context.Context, id uint) error {
	return r.Tx(ctx, func(tx *GormRepo) error {
		if err := tx.DB.Exec("DELETE FROM product_collections WHERE collection_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.DB.Delete(&models.Collection{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		return nil
	})
}

func (r *GormRepo) AddCollectionProducts(ctx context.Context, c *models.Collection, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(c).Omit("Products.*").Association("Products").Append(products)
}

func (r *GormRepo) RemoveCollectionProduct(ctx context.Context, collectionID, productID uint) (bool, error) {
	res := r.DB.WithContext(ctx).Exec(
		"DELETE FROM product_collections WHERE collection_id = ? AND product_id = ?",
		collectionID, productID,
	)
	return res.RowsAffected > 0, res.Error
}
