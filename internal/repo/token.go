package repo

import (
	"context"
	"errors"
	"time"

	jwthelp "github.com/Dhia7/weary-sub000/pkg/jwt"

	"github.com/Dhia7/weary-sub000/internal/models"
)

var ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")

func (r *GormRepo) AddRefreshToken(ctx context.Context, userID uint, jti, refreshToken string, exp time.Time) error {
	return r.DB.WithContext(ctx).Create(&models.RefreshToken{
		Token:     jwthelp.Sha256Hex(refreshToken),
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: exp.Unix(),
	}).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RotateRefreshToken revokes the presented token and stores its replacement atomically.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldToken string, next models.RefreshToken) error {
	return r.Tx(ctx, func(tx *GormRepo) error {
		var current models.RefreshToken
		if err := tx.forUpdate(ctx).
			Where("token = ?", jwthelp.Sha256Hex(oldToken)).
			First(&current).Error; err != nil {
			return err
		}
		if current.Revoked || current.ExpiresAt < time.Now().Unix() {
			return ErrTokenExpiredOrRevoked
		}

		res := tx.DB.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", current.ID, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenExpiredOrRevoked
		}

		return tx.DB.Create(&next).Error
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeAllRefreshTokens(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}
