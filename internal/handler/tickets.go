package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-ticketing/internal/service"
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

const qrSize = 256

// TicketHandler renders tickets for their owner.
type TicketHandler struct {
	Orders *service.Orders
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(svc *service.Services) *TicketHandler {
	return &TicketHandler{Orders: svc.Orders}
}

// QR handles GET /v1/tickets/:code/qr and returns a PNG of the admission
// code.  Only the buyer the ticket was issued to may fetch it.
func (h *TicketHandler) QR(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, err := h.Orders.Ticket(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeError(c, err)
	}
	if t.UserID != userID {
		return writeError(c, service.ErrTicketNotFound)
	}
	png, err := utils.TicketQRCode(t.TicketCode, qrSize)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}
