package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Dhia7/weary-sub000/internal/service"
	"github.com/Dhia7/weary-sub000/pkg/logging"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func ok(c echo.Context, data any) error {
	return respond(c, http.StatusOK, "", data)
}

func created(c echo.Context, message string, data any) error {
	return respond(c, http.StatusCreated, message, data)
}

func done(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Message: message})
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrLocked):
		return http.StatusLocked
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error as {success:false, message}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal server error"

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(status)
		}
	default:
		status = StatusFor(err)
		if status != http.StatusInternalServerError {
			msg = service.Message(err)
			if msg == "" {
				msg = err.Error()
			}
		}
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request_failed", "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, envelope{Success: false, Message: msg})
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(id), nil
}

func queryBool(c echo.Context, name string) *bool {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}
