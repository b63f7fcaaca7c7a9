package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Dhia7/weary-sub000/internal/search"
)

type DocumentIndex interface {
	IndexDocument(ctx context.Context, doc search.Document) error
	DeleteProduct(ctx context.Context, id uint) error
}

type Handlers struct {
	Index DocumentIndex
	Log   *slog.Logger
}

func (h *Handlers) logger(ctx context.Context, t *asynq.Task) *slog.Logger {
	l := h.Log
	if l == nil {
		l = slog.Default()
	}
	retry, _ := asynq.GetRetryCount(ctx)
	taskID, _ := asynq.GetTaskID(ctx)
	return l.With("task_id", taskID, "task_type", t.Type(), "retry", retry)
}

func (h *Handlers) HandleProductIndex(ctx context.Context, t *asynq.Task) error {
	l := h.logger(ctx, t)

	var p ProductIndexPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		l.Error("task_failed", "reason", "bad payload", "error", err)
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.Index.IndexDocument(ctx, p.Document); err != nil {
		l.Warn("task_failed", "product_id", p.Document.ID, "error", err)
		return err
	}
	l.Info("product_indexed", "product_id", p.Document.ID)
	return nil
}

func (h *Handlers) HandleProductDelete(ctx context.Context, t *asynq.Task) error {
	l := h.logger(ctx, t)

	var p ProductDeletePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		l.Error("task_failed", "reason", "bad payload", "error", err)
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.Index.DeleteProduct(ctx, p.ProductID); err != nil {
		l.Warn("task_failed", "product_id", p.ProductID, "error", err)
		return err
	}
	l.Info("product_unindexed", "product_id", p.ProductID)
	return nil
}

func NewServeMux(h *Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeProductIndex, h.HandleProductIndex)
	mux.HandleFunc(TypeProductDelete, h.HandleProductDelete)
	return mux
}

func NewServer(opt asynq.RedisClientOpt, concurrency int, log *slog.Logger) *asynq.Server {
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueSearch: 5,
			"default":   1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retry, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Error("task_error", "task_type", task.Type(), "retry", retry, "max_retry", maxRetry, "error", err)
		}),
	})
}
