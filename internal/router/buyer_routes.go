package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-ticketing/internal/middleware"
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

// RegisterBuyer registers buyer-facing endpoints under /v1.  Locking and
// checkout are rate limited per buyer.  Order detail is also open to
// finance and admin; the handler restricts buyers to their own orders.
func RegisterBuyer(e *echo.Echo, d Deps) {
	auth := middleware.JWTAuth(d.JWTSecret)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	g := e.Group("/v1", auth, middleware.RequireRole(utils.RoleBuyer))
	g.POST("/sessions/:id/locks", d.Seats.Lock, limit)
	g.DELETE("/sessions/:id/locks", d.Seats.Unlock)
	g.POST("/sessions/:id/checkout", d.Orders.Checkout, limit)
	g.GET("/orders", d.Orders.Mine)
	g.POST("/orders/:code/transfer-proof", d.Orders.TransferProof)
	g.GET("/tickets/:code/qr", d.Tickets.QR)

	e.GET("/v1/orders/:code", d.Orders.Get,
		auth, middleware.RequireRole(utils.RoleBuyer, utils.RoleFinance, utils.RoleAdmin))
}
