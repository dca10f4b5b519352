package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems.  It returns a plain text "ok" with status 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by the booking store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler reports whether the dependencies needed to serve bookings
// are reachable.  Redis is optional: its state is reported but never
// fails readiness.
type ReadyHandler struct {
	Store Pinger
	Redis *redis.Client
}

// Ready handles GET /readyz.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{}
	status := http.StatusOK
	if err := h.Store.Ping(ctx); err != nil {
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}
	switch {
	case h.Redis == nil:
		checks["redis"] = "disabled"
	case h.Redis.Ping(ctx).Err() != nil:
		checks["redis"] = "unreachable"
	default:
		checks["redis"] = "ok"
	}
	return c.JSON(status, echo.Map{"ready": status == http.StatusOK, "checks": checks})
}
