package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Dhia7/weary-sub000/internal/config"
	"github.com/Dhia7/weary-sub000/internal/search"
	"github.com/Dhia7/weary-sub000/internal/tasks"
	pkgconfig "github.com/Dhia7/weary-sub000/pkg/config"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := search.NewClient(ctx, search.Config{
		URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex,
	})
	cancel()
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}

	opt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	srv := tasks.NewServer(opt, pkgconfig.EnvIntDefault("WORKER_CONCURRENCY", 5), logger)
	mux := tasks.NewServeMux(&tasks.Handlers{
		Index: &search.Index{ES: client, Index: cfg.ESIndex},
		Log:   logger,
	})

	logger.Info("worker_started", "redis", cfg.RedisAddr, "index", cfg.ESIndex)
	// Run blocks until SIGINT or SIGTERM and then drains in-flight tasks.
	if err := srv.Run(mux); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
