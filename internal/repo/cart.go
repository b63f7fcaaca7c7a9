package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Dhia7/weary-sub000/internal/models"
)

func (r *GormRepo) ListCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *GormRepo) GetCartItem(ctx context.Context, userID, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) FindCartLine(ctx context.Context, userID, productID uint, size string) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND size = ?", userID, productID, size).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, id uint, qty int) error {
	return r.DB.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", qty).Error
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, id uint) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
