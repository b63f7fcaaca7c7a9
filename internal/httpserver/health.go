package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Dhia7/weary-sub000/pkg/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHTTP struct {
	DB Pinger
}

func (h *HealthHTTP) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.DB.Ping(ctx); err != nil {
		logging.FromContext(ctx).Error("health_check_failed", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, envelope{
			Success: false,
			Message: "Database connection failed",
			Data:    echo.Map{"database": "disconnected", "timestamp": now},
		})
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "OK",
		Data:    echo.Map{"database": "connected", "timestamp": now},
	})
}

func (h *HealthHTTP) Live(c echo.Context) error { return c.NoContent(http.StatusOK) }

func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
