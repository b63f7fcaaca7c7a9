package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/Dhia7/weary-sub000/pkg/logging"
)

// Counter increments key and returns the number of hits inside the current window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounter struct {
	Client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{Client: client}
}

// Hit runs INCR and EXPIRE in one pipeline.
func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.Client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis: rate limit pipeline for %s: %w", key, err)
	}
	return incr.Result()
}

func Key(route, ip string) string {
	return "ratelimit:" + route + ":" + ip
}

// Middleware allows max requests per client IP and route within window.
// Counter failures are logged and the request goes through.
func Middleware(counter Counter, route string, max int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if counter == nil || max <= 0 || window <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ip := c.RealIP()

			count, err := counter.Hit(ctx, Key(route, ip), window)
			if err != nil {
				logging.FromContext(ctx).Error("rate_limit_error", "route", route, "error", err)
				return next(c)
			}

			remaining := int64(max) - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(max))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(max) {
				h.Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				logging.FromContext(ctx).Warn("rate_limited", "status", 429, "route", route, "ip", ip)
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}
