package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dhia7/weary-sub000/internal/events"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/util"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

const recentOrdersOnDashboard = 5

type AdminService struct {
	Repo              *repo.GormRepo
	Events            events.Publisher
	LowStockThreshold int
}

type Dashboard struct {
	TotalUsers       int64              `json:"totalUsers"`
	TotalProducts    int64              `json:"totalProducts"`
	TotalOrders      int64              `json:"totalOrders"`
	TotalRevenue     decimal.Decimal    `json:"totalRevenue"`
	OrdersByStatus   []repo.StatusCount `json:"ordersByStatus"`
	RecentOrders     []models.Order     `json:"recentOrders"`
	LowStockProducts []models.Product   `json:"lowStockProducts"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.Repo.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.Repo.RecentOrders(ctx, recentOrdersOnDashboard)
	if err != nil {
		return nil, err
	}
	low, err := s.Repo.LowStockProducts(ctx, s.LowStockThreshold, 20)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalUsers:       stats.Users,
		TotalProducts:    stats.Products,
		TotalOrders:      stats.Orders,
		TotalRevenue:     stats.Revenue,
		OrdersByStatus:   stats.ByStatus,
		RecentOrders:     recent,
		LowStockProducts: low,
	}
	if d.OrdersByStatus == nil {
		d.OrdersByStatus = []repo.StatusCount{}
	}
	if d.RecentOrders == nil {
		d.RecentOrders = []models.Order{}
	}
	if d.LowStockProducts == nil {
		d.LowStockProducts = []models.Product{}
	}
	return d, nil
}

func (s *AdminService) ListUsers(ctx context.Context, f repo.UserFilter, page, limit int) (*Paged[models.User], error) {
	if f.Role != "" && f.Role != models.RoleUser && f.Role != models.RoleAdmin {
		return nil, fail(ErrValidation, "unknown role %q", f.Role)
	}
	page, limit = util.Normalize(page, limit)
	offset, limit := util.Calculate(page, limit)
	total, users, err := s.Repo.ListUsers(ctx, f, repo.Page{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return &Paged[models.User]{Items: users, Pagination: util.NewPagination(page, limit, total)}, nil
}

func (s *AdminService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

type AdminUserInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"isActive"`
}

// UpdateUser edits any account. An admin cannot drop its own admin role or deactivate itself.
func (s *AdminService) UpdateUser(ctx context.Context, actorID, id uint, in AdminUserInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "admin.update_user", "actor_id", actorID, "user_id", id)

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" {
			return nil, fail(ErrValidation, "firstName cannot be empty")
		}
		fields["first_name"] = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if v == "" {
			return nil, fail(ErrValidation, "lastName cannot be empty")
		}
		fields["last_name"] = v
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		role := strings.TrimSpace(*in.Role)
		if role != models.RoleUser && role != models.RoleAdmin {
			return nil, fail(ErrValidation, "role must be %s or %s", models.RoleUser, models.RoleAdmin)
		}
		if actorID == id && role != models.RoleAdmin {
			l.Warn("update_user_failed", "status", 400, "reason", "self demotion")
			return nil, fail(ErrValidation, "you cannot remove your own admin role")
		}
		fields["role"] = role
	}
	if in.IsActive != nil {
		if actorID == id && !*in.IsActive {
			l.Warn("update_user_failed", "status", 400, "reason", "self deactivation")
			return nil, fail(ErrValidation, "you cannot deactivate your own account")
		}
		fields["is_active"] = *in.IsActive
	}

	if len(fields) > 0 {
		err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
			if err := tx.UpdateUser(ctx, u.ID, fields); err != nil {
				return err
			}
			if in.IsActive != nil && !*in.IsActive {
				return tx.RevokeAllRefreshTokens(ctx, u.ID)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	publish(ctx, s.Events, events.TopicUser, u.ID, "user_updated", map[string]any{"by": actorID})
	return s.GetUser(ctx, id)
}

func (s *AdminService) DeleteUser(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return fail(ErrValidation, "you cannot delete your own account")
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	orders, err := s.Repo.CountUserOrders(ctx, id)
	if err != nil {
		return err
	}
	if orders > 0 {
		return fail(ErrValidation, "user has %d orders; deactivate the account instead", orders)
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return notFound(err, "user")
	}
	publish(ctx, s.Events, events.TopicUser, id, "user_deleted", map[string]any{"by": actorID})
	return nil
}
