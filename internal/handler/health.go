package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports whether the process and its stores are reachable.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Health answers 200 "ok" when MySQL (and Redis, if configured) respond,
// 503 otherwise.  Load balancers poll it.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "mysql unavailable")
		}
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			return c.String(http.StatusServiceUnavailable, "redis unavailable")
		}
	}
	return c.String(http.StatusOK, "ok")
}
