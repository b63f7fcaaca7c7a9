package repo

import (
	"context"

	"github.com/Dhia7/weary-sub000/internal/models"
)

func (r *GormRepo) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var items []models.Address
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (r *GormRepo) GetAddress(ctx context.Context, userID, id uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) CountAddresses(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *GormRepo) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) SaveAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Save(a).Error
}

func (r *GormRepo) ClearDefaultAddress(ctx context.Context, userID, exceptID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, exceptID, true).
		Update("is_default", false).Error
}

func (r *GormRepo) DeleteAddress(ctx context.Context, userID, id uint) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

// LatestAddress is the most recently created address of the user, if any.
func (r *GormRepo) LatestAddress(ctx context.Context, userID uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
