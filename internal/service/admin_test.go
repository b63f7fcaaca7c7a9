package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
)

func TestAdminService_SelfGuards(t *testing.T) {
	r := newRepo(t)
	svc := &AdminService{Repo: r}
	ctx := context.Background()
	admin := seedUser(t, r, "admin@example.com", "secret123", models.RoleAdmin)

	_, err := svc.UpdateUser(ctx, admin.ID, admin.ID, AdminUserInput{Role: strPtr(models.RoleUser)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateUser(ctx, admin.ID, admin.ID, AdminUserInput{IsActive: boolPtr(false)})
	require.ErrorIs(t, err, ErrValidation)

	require.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, admin.ID), ErrValidation)

	got, err := svc.UpdateUser(ctx, admin.ID, admin.ID, AdminUserInput{FirstName: strPtr("Root")})
	require.NoError(t, err)
	assert.Equal(t, "Root", got.FirstName)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestAdminService_UpdateAndDeleteOtherUser(t *testing.T) {
	r := newRepo(t)
	svc := &AdminService{Repo: r}
	ctx := context.Background()
	admin := seedUser(t, r, "admin@example.com", "secret123", models.RoleAdmin)
	u := seedUser(t, r, "bob@example.com", "secret123", models.RoleUser)

	got, err := svc.UpdateUser(ctx, admin.ID, u.ID, AdminUserInput{Role: strPtr(models.RoleAdmin), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.False(t, got.IsActive)

	_, err = svc.UpdateUser(ctx, admin.ID, u.ID, AdminUserInput{Role: strPtr("root")})
	require.ErrorIs(t, err, ErrValidation)

	_, err = (&UserService{Repo: r}).CreateAddress(ctx, u.ID, addressIn("Home"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, admin.ID, u.ID))
	_, err = svc.GetUser(ctx, u.ID)
	require.ErrorIs(t, err, ErrNotFound)

	n, err := r.CountAddresses(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAdminService_ListUsersFilters(t *testing.T) {
	r := newRepo(t)
	svc := &AdminService{Repo: r}
	ctx := context.Background()
	seedUser(t, r, "admin@example.com", "secret123", models.RoleAdmin)
	seedUser(t, r, "carol@example.com", "secret123", models.RoleUser)
	seedUser(t, r, "dave@example.com", "secret123", models.RoleUser)

	res, err := svc.ListUsers(ctx, repo.UserFilter{Role: models.RoleUser}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Pagination.Total)

	res, err = svc.ListUsers(ctx, repo.UserFilter{Query: "CAROL"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "carol@example.com", res.Items[0].Email)
}

func TestAdminService_Dashboard(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	svc := &AdminService{Repo: f.repo, LowStockThreshold: 5}

	p := seedProduct(t, f.repo, "DB", "30.00", 6, nil)
	_, err := f.cart.Add(ctx, f.user.ID, p.ID, 2, "")
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, f.user.ID, CreateOrderInput{})
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.TotalUsers)
	assert.Equal(t, int64(1), d.TotalProducts)
	assert.Equal(t, int64(1), d.TotalOrders)
	assert.Equal(t, "70", d.TotalRevenue.String())
	require.Len(t, d.OrdersByStatus, 1)
	assert.Equal(t, models.OrderPending, d.OrdersByStatus[0].Status)
	require.Len(t, d.RecentOrders, 1)
	require.Len(t, d.LowStockProducts, 1)
	assert.Equal(t, 4, d.LowStockProducts[0].Stock)
}
