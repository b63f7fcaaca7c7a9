package repo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Dhia7/weary-sub000/internal/models"
)

type OrderFilter struct {
	UserID uint
	Status string
}

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit("User").Create(o).Error
}

func (r *GormRepo) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	return r.fieldTaken(ctx, &models.Order{}, "order_number", number, 0)
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Preload("User").
		First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) LockOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.forUpdate(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Where("order_id = ?", o.ID).Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, p Page) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	find := p.apply(q).Preload("Items").Order("created_at DESC, id DESC")
	if f.UserID == 0 {
		find = find.Preload("User")
	}
	if err := find.Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) UpdateOrder(ctx context.Context, id uint, fields map[string]any) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	return r.Tx(ctx, func(tx *GormRepo) error {
		if err := tx.DB.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.DB.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		return nil
	})
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type Stats struct {
	Users    int64
	Products int64
	Orders   int64
	Revenue  decimal.Decimal
	ByStatus []StatusCount
}

func (r *GormRepo) DashboardStats(ctx context.Context) (*Stats, error) {
	db := r.DB.WithContext(ctx)
	s := &Stats{}

	if err := db.Model(&models.User{}).Count(&s.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).Count(&s.Products).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&s.Orders).Error; err != nil {
		return nil, err
	}

	var revenue decimal.NullDecimal
	if err := db.Model(&models.Order{}).
		Select("SUM(total)").
		Where("status <> ?", models.OrderCancelled).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	s.Revenue = decimal.Zero
	if revenue.Valid {
		s.Revenue = revenue.Decimal
	}

	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&s.ByStatus).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *GormRepo) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
