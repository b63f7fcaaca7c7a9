package service

import (
	"context"
	"strconv"

	"github.com/Dhia7/weary-sub000/internal/events"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/util"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

// ProductIndexer keeps the search index in step with product writes.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type ProductSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type Paged[T any] struct {
	Items      []T
	Pagination util.Pagination
}

func idKey(id uint) string { return strconv.FormatUint(uint64(id), 10) }

// publish never fails the caller; delivery problems are logged.
func publish(ctx context.Context, pub events.Publisher, topic string, id uint, typ string, data any) {
	if pub == nil {
		return
	}
	key := idKey(id)
	if err := pub.PublishEvent(ctx, topic, key, events.Event{Type: typ, EntityID: key, Data: data}); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "type", typ, "error", err)
	}
}
