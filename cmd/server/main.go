package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Dhia7/weary-sub000/internal/config"
	"github.com/Dhia7/weary-sub000/internal/events"
	"github.com/Dhia7/weary-sub000/internal/httpserver"
	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
	"github.com/Dhia7/weary-sub000/internal/middleware/csrf"
	"github.com/Dhia7/weary-sub000/internal/middleware/ratelimit"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/search"
	"github.com/Dhia7/weary-sub000/internal/service"
	"github.com/Dhia7/weary-sub000/internal/tasks"
	pkgdb "github.com/Dhia7/weary-sub000/pkg/db"
	"github.com/Dhia7/weary-sub000/pkg/logging"
	loggingmw "github.com/Dhia7/weary-sub000/pkg/middleware/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL, pkgdb.DefaultPool())
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := repo.New(db)

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	products := &service.ProductService{Repo: r, Events: publisher}
	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := search.NewClient(esCtx, search.Config{
			URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex,
		})
		esCancel()
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			index := &search.Index{ES: client, Index: cfg.ESIndex}
			products.Searcher = index
			products.Indexer = index
		}
	}

	var limiter func(route string) echo.MiddlewareFunc
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		counter := ratelimit.NewRedisCounter(rdb)
		limiter = func(route string) echo.MiddlewareFunc {
			return ratelimit.Middleware(counter, route, cfg.RateLimitMax, cfg.RateLimitWindow)
		}

		if products.Indexer != nil {
			enq := tasks.NewEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
			defer enq.Close()
			products.Indexer = enq
		}
	}

	cart := &service.CartService{Repo: r, Events: publisher}
	orders := &service.OrderService{
		Repo:                  r,
		Events:                publisher,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFlatRate:      cfg.ShippingFlatRate,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "X-CSRF-Token",
		},
	}))
	e.Use(echomw.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes+(1<<20), 10)))

	deps := &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Repo:             r,
				Events:           publisher,
				JWTSecret:        cfg.JWTSecret,
				RefreshSecret:    cfg.RefreshSecret,
				AccessTTL:        cfg.AccessTokenTTL,
				RefreshTTL:       cfg.RefreshTokenTTL,
				MaxLoginAttempts: cfg.MaxLoginAttempts,
				LockDuration:     cfg.LockDuration,
			},
			SecureCookies: cfg.SecureCookies,
		},
		UserHandler: &httpserver.UserHTTP{Svc: &service.UserService{Repo: r}},
		ProductHandler: &httpserver.ProductHTTP{
			Svc:     products,
			Uploads: &httpserver.Uploads{Dir: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes},
		},
		CategoryHandler:   &httpserver.CategoryHTTP{Svc: &service.CategoryService{Repo: r}},
		CollectionHandler: &httpserver.CollectionHTTP{Svc: &service.CollectionService{Repo: r}},
		CartHandler:       &httpserver.CartHTTP{Svc: cart},
		WishlistHandler:   &httpserver.WishlistHTTP{Svc: &service.WishlistService{Repo: r, Cart: cart}},
		OrderHandler:      &httpserver.OrderHTTP{Svc: orders},
		AdminHandler: &httpserver.AdminHTTP{
			Svc:    &service.AdminService{Repo: r, Events: publisher, LowStockThreshold: cfg.LowStockThreshold},
			Orders: orders,
		},
		HealthHandler: &httpserver.HealthHTTP{DB: r},
		Auth:          authmw.New(cfg.JWTSecret, r),
		RateLimit:     limiter,
		UploadDir:     cfg.UploadDir,
	}
	if cfg.CSRFEnabled {
		csrfCfg := csrf.DefaultConfig()
		csrfCfg.Secure = cfg.SecureCookies
		csrfCfg.SkipPaths = []string{"/api/auth/login", "/api/auth/register"}
		deps.CSRF = csrf.Middleware(csrfCfg)
	}
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_failed", "error", err)
	}
	logger.Info("server stopped")
}
