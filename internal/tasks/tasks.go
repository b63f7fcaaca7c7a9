package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/search"
)

const (
	TypeProductIndex  = "product:index"
	TypeProductDelete = "product:delete"
)

const QueueSearch = "search"

type ProductIndexPayload struct {
	Document search.Document `json:"document"`
}

type ProductDeletePayload struct {
	ProductID uint `json:"productId"`
}

func NewProductIndexTask(p *models.Product) (*asynq.Task, error) {
	payload, err := json.Marshal(ProductIndexPayload{Document: search.DocumentFrom(p)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeProductIndex, payload), nil
}

func NewProductDeleteTask(id uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ProductDeletePayload{ProductID: id})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeProductDelete, payload), nil
}

// Enqueuer hands search indexing to the worker instead of doing it inline.
type Enqueuer struct {
	Client *asynq.Client
}

func NewEnqueuer(opt asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{Client: asynq.NewClient(opt)}
}

func (e *Enqueuer) IndexProduct(ctx context.Context, p *models.Product) error {
	task, err := NewProductIndexTask(p)
	if err != nil {
		return fmt.Errorf("tasks: build %s: %w", TypeProductIndex, err)
	}
	return e.enqueue(ctx, task)
}

func (e *Enqueuer) DeleteProduct(ctx context.Context, id uint) error {
	task, err := NewProductDeleteTask(id)
	if err != nil {
		return fmt.Errorf("tasks: build %s: %w", TypeProductDelete, err)
	}
	return e.enqueue(ctx, task)
}

func (e *Enqueuer) enqueue(ctx context.Context, task *asynq.Task) error {
	if _, err := e.Client.EnqueueContext(ctx, task,
		asynq.Queue(QueueSearch),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	); err != nil {
		return fmt.Errorf("tasks: enqueue %s: %w", task.Type(), err)
	}
	return nil
}

func (e *Enqueuer) Close() error {
	return e.Client.Close()
}
