package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Dhia7/weary-sub000/internal/models"
)

func (r *GormRepo) ListWishlist(ctx context.Context, userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (r *GormRepo) InWishlist(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) AddWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *GormRepo) RemoveWishlistItem(ctx context.Context, userID, productID uint) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}
