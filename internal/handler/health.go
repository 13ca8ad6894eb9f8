package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports whether the service and its backing stores are
// reachable.  It is used by load balancers and monitoring systems.
type HealthHandler struct {
	DB    *sqlx.DB
	Redis *redis.Client // optional
}

// Health returns 200 "ok" when the database answers a ping.  Redis is
// reported but never fails the check because the service degrades
// without it.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "down", "database": err.Error()})
	}
	redisStatus := "disabled"
	if h.Redis != nil {
		redisStatus = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unreachable"
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "redis": redisStatus})
}
