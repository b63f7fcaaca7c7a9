package repo

import (
	"context"

	"github.com/Dhia7/weary-sub000/internal/models"
)

type linkCount struct {
	OwnerID uint
	Total   int64
}

// activeProductCounts counts active products per owner in a product join table.
func (r *GormRepo) activeProductCounts(ctx context.Context, joinTable, ownerColumn string) (map[uint]int64, error) {
	var rows []linkCount
	err := r.DB.WithContext(ctx).
		Table(joinTable).
		Select(joinTable+"."+ownerColumn+" AS owner_id, COUNT(*) AS total").
		Joins("JOIN products ON products.id = "+joinTable+".product_id").
		Where("products.is_active = ?", true).
		Group(joinTable + "." + ownerColumn).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.OwnerID] = row.Total
	}
	return out, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	counts, err := r.activeProductCounts(ctx, "product_categories", "category_id")
	if err != nil {
		return nil, err
	}
	for i := range cats {
		cats[i].ProductCount = counts[cats[i].ID]
	}
	return cats, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).
		Preload("Products", "is_active = ?", true).
		Where("slug = ?", slug).
		First(&c).Error; err != nil {
		return nil, err
	}
	c.ProductCount = int64(len(c.Products))
	return &c, nil
}

func (r *GormRepo) CategoryNameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	return r.fieldTaken(ctx, &models.Category{}, "name", name, exceptID)
}

func (r *GormRepo) CategorySlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	return r.fieldTaken(ctx, &models.Category{}, "slug", slug, exceptID)
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Omit("Products").Create(c).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Omit("Products").Save(c).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.Tx(ctx, func(tx *GormRepo) error {
		if err := tx.DB.Exec("DELETE FROM product_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.DB.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		return nil
	})
}

func (r *GormRepo) CategoriesBySlugs(ctx context.Context, slugs []string) ([]models.Category, error) {
	out := []models.Category{}
	if len(slugs) == 0 {
		return out, nil
	}
	err := r.DB.WithContext(ctx).Where("slug IN ?", slugs).Find(&out).Error
	return out, err
}
