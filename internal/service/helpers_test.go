package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Dhia7/weary-sub000/internal/events"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/testutil"
	pkg_hash "github.com/Dhia7/weary-sub000/pkg/hash"
)

type published struct {
	Topic string
	Key   string
	Event events.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{Topic: topic, Key: key, Event: e})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, p := range f.sent {
		out[i] = p.Event.Type
	}
	return out
}

type fakeIndexer struct {
	indexed []uint
	deleted []uint
}

func (f *fakeIndexer) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeIndexer) DeleteProduct(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(testutil.NewDB(t))
}

func seedUser(t *testing.T, r *repo.GormRepo, email, password, role string) *models.User {
	t.Helper()
	h, err := pkg_hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		Email:        email,
		PasswordHash: h,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, r *repo.GormRepo, sku, price string, stock int, sizes map[string]int) *models.Product {
	t.Helper()
	if sizes == nil {
		sizes = map[string]int{}
	}
	p := &models.Product{
		Name:      "Product " + sku,
		Slug:      "product-" + sku,
		SKU:       sku,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		SizeStock: datatypes.NewJSONType(sizes),
		IsActive:  true,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
