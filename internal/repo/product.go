package repo

import (
	"context"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dhia7/weary-sub000/internal/models"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

type ProductFilter struct {
	Category        string
	Collection      string
	Query           string
	Size            string
	MinPrice        *float64
	MaxPrice        *float64
	Featured        *bool
	IncludeInactive bool
	Sort            string
}

func (r *GormRepo) filteredProducts(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if !f.IncludeInactive {
		q = q.Where("products.is_active = ?", true)
	}
	if f.Category != "" {
		sub := r.DB.Table("product_categories").
			Select("product_categories.product_id").
			Joins("JOIN categories ON categories.id = product_categories.category_id").
			Where("categories.slug = ?", f.Category)
		q = q.Where("products.id IN (?)", sub)
	}
	if f.Collection != "" {
		sub := r.DB.Table("product_collections").
			Select("product_collections.product_id").
			Joins("JOIN collections ON collections.id = product_collections.collection_id").
			Where("collections.slug = ?", f.Collection)
		q = q.Where("products.id IN (?)", sub)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.sku) LIKE ?", like, like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.Featured != nil {
		q = q.Where("products.is_featured = ?", *f.Featured)
	}
	if f.Size != "" {
		q = q.Where(datatypes.JSONQuery("size_stock").HasKey(f.Size))
	}
	return q
}

func productOrder(sort string) string {
	switch sort {
	case SortPriceAsc:
		return "products.price ASC, products.id ASC"
	case SortPriceDesc:
		return "products.price DESC, products.id DESC"
	case SortName:
		return "products.name ASC, products.id ASC"
	default:
		return "products.created_at DESC, products.id DESC"
	}
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, p Page) (int64, []models.Product, error) {
	var total int64
	if err := r.filteredProducts(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, p.Limit)
	if err := p.apply(r.filteredProducts(ctx, f)).
		Preload("Categories").
		Order(productOrder(f.Sort)).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) AllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).Preload("Categories").Preload("Collections").Order("id ASC").Find(&items).Error
	return items, err
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Categories").
		Preload("Collections").
		First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Categories").
		Preload("Collections").
		Where("slug = ?", slug).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Where("sku = ?", sku).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductsByIDs loads products keeping the order of ids.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint, includeInactive bool) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	q := r.DB.WithContext(ctx).Preload("Categories").Where("id IN ?", ids)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var found []models.Product
	if err := q.Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) LockProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.forUpdate(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) fieldTaken(ctx context.Context, model any, column, value string, exceptID uint) (bool, error) {
	var count int64
	q := r.DB.WithContext(ctx).Model(model).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ProductSlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	return r.fieldTaken(ctx, &models.Product{}, "slug", slug, exceptID)
}

func (r *GormRepo) ProductSKUTaken(ctx context.Context, sku string, exceptID uint) (bool, error) {
	return r.fieldTaken(ctx, &models.Product{}, "sku", sku, exceptID)
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit("Categories.*", "Collections.*").Create(p).Error
}

// SaveProduct writes the columns only; associations go through ReplaceProductLinks.
func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *GormRepo) ReplaceProductLinks(ctx context.Context, p *models.Product, cats []models.Category, cols []models.Collection) error {
	db := r.DB.WithContext(ctx)
	if cats != nil {
		if err := db.Model(p).Omit("Categories.*").Association("Categories").Replace(cats); err != nil {
			return err
		}
	}
	if cols != nil {
		if err := db.Model(p).Omit("Collections.*").Association("Collections").Replace(cols); err != nil {
			return err
		}
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.Tx(ctx, func(tx *GormRepo) error {
		db := tx.DB
		p := &models.Product{ID: id}
		if err := db.Model(p).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := db.Model(p).Association("Collections").Clear(); err != nil {
			return err
		}
		if err := db.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := db.Where("product_id = ?", id).Delete(&models.WishlistItem{}).Error; err != nil {
			return err
		}
		res := db.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		return nil
	})
}

func (r *GormRepo) UpdateProductImage(ctx context.Context, id uint, image string) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("image", image)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

func (r *GormRepo) CategoriesByIDs(ctx context.Context, ids []uint) ([]models.Category, error) {
	out := []models.Category{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *GormRepo) CollectionsByIDs(ctx context.Context, ids []uint) ([]models.Collection, error) {
	out := []models.Collection{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *GormRepo) LowStockProducts(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Order("stock ASC, id ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
