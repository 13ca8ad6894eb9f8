package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-ticketing/internal/middleware"
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

// RegisterStaff registers finance, admin and gate endpoints under /v1.
// Admin may do everything the other staff roles can.
func RegisterStaff(e *echo.Echo, d Deps) {
	auth := middleware.JWTAuth(d.JWTSecret)

	finance := e.Group("/v1/orders", auth, middleware.RequireRole(utils.RoleFinance, utils.RoleAdmin))
	finance.POST("/:code/verify", d.Orders.Verify)
	finance.POST("/:code/refund", d.Orders.Refund)

	admin := e.Group("/v1/orders", auth, middleware.RequireRole(utils.RoleAdmin))
	admin.POST("/:code/cancel", d.Orders.Cancel)

	gate := e.Group("/v1/gate", auth, middleware.RequireRole(utils.RoleGateOfficer, utils.RoleAdmin))
	gate.POST("/admit", d.Gate.Admit, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	gate.GET("/scans/:code", d.Gate.Scans)
}
