package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-seat-ticketing/internal/config"
	"github.com/iliyamo/event-seat-ticketing/internal/handler"
	"github.com/iliyamo/event-seat-ticketing/internal/middleware"
)

// Deps carries everything the route groups need.  Redis may be nil, in
// which case caching and rate limiting are disabled.
type Deps struct {
	JWTSecret string
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig

	Health  *handler.HealthHandler
	Seats   *handler.SeatHandler
	Orders  *handler.OrderHandler
	Tickets *handler.TicketHandler
	Gate    *handler.GateHandler
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d)
	RegisterBuyer(e, d)
	RegisterStaff(e, d)
}

// RegisterRoutes registers routes that do not require authentication:
// health, metrics and the public seat map and category listing.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/v1")
	// Seat maps show live availability and are never cached.
	g.GET("/sessions/:id/seats", d.Seats.SeatMap)
	g.GET("/sessions/:id/categories", d.Seats.Categories, middleware.NewRedisCache(d.Cache, d.Redis))
}
