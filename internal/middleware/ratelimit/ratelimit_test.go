package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type memCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (m *memCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hits == nil {
		m.hits = map[string]int64{}
	}
	m.hits[key]++
	return m.hits[key], nil
}

func call(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_LimitsPerIP(t *testing.T) {
	counter := &memCounter{}
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		Middleware(counter, "login", 2, time.Minute))

	assert.Equal(t, http.StatusOK, call(e, "10.0.0.1").Code)
	rec := call(e, "10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = call(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call(e, "10.0.0.2").Code)
	assert.Equal(t, int64(3), counter.hits[Key("login", "10.0.0.1")])
}

func TestMiddleware_FailsOpen(t *testing.T) {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		Middleware(&memCounter{err: errors.New("redis down")}, "login", 1, time.Minute))

	assert.Equal(t, http.StatusOK, call(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call(e, "10.0.0.1").Code)
}

func TestMiddleware_DisabledWithoutCounter(t *testing.T) {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		Middleware(nil, "login", 1, time.Minute))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, call(e, "10.0.0.1").Code)
	}
}
