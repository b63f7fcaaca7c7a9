package repo

import (
	"context"
	"strings"
	"time"

	"github.com/Dhia7/weary-sub000/internal/models"
)

func (r *GormRepo) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	q := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uint, fields map[string]any) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormRepo) RecordLoginFailure(ctx context.Context, id uint, attempts int, lockedUntil *time.Time) error {
	return r.UpdateUser(ctx, id, map[string]any{
		"failed_login_attempts": attempts,
		"locked_until":          lockedUntil,
	})
}

func (r *GormRepo) RecordLoginSuccess(ctx context.Context, id uint, at time.Time) error {
	return r.UpdateUser(ctx, id, map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         at,
	})
}

type UserFilter struct {
	Query string
	Role  string
}

func (r *GormRepo) ListUsers(ctx context.Context, f UserFilter, p Page) (int64, []models.User, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var users []models.User
	if err := p.apply(q).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

func (r *GormRepo) CountUserOrders(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// DeleteUser removes the user with its cart, wishlist, addresses and tokens.
func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.Tx(ctx, func(tx *GormRepo) error {
		db := tx.DB
		for _, m := range []any{&models.CartItem{}, &models.WishlistItem{}, &models.Address{}, &models.RefreshToken{}} {
			if err := db.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := db.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		return nil
	})
}
