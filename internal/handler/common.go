package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/middleware"
	"github.com/iliyamo/event-seat-ticketing/internal/service"
)

// errUnauthorized is returned by getUserID when no identity is present.
var errUnauthorized = errors.New("unauthorized")

// getUserID extracts the authenticated user ID placed by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errUnauthorized
	}
	return id, nil
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// writeError maps service errors to HTTP responses.  Unknown errors are
// logged and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
	var (
		seatErr  *service.SeatUnavailableError
		holdErr  *service.HoldExpiredError
		stateErr *service.OrderStateError
	)
	switch {
	case errors.As(err, &seatErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat_unavailable", "seat_id": seatErr.SeatID, "seat_code": seatErr.SeatCode})
	case errors.As(err, &holdErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_expired", "seat_id": holdErr.SeatID, "seat_code": holdErr.SeatCode})
	case errors.Is(err, service.ErrPaymentDeadlinePassed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_deadline_passed"})
	case errors.As(err, &stateErr) && errors.Is(err, service.ErrOrderNotPending):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_not_pending", "status": stateErr.Status})
	case errors.As(err, &stateErr) && errors.Is(err, service.ErrOrderNotPaid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_not_paid", "status": stateErr.Status})
	case errors.Is(err, service.ErrSessionClosed):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "session_closed"})
	case errors.Is(err, service.ErrNotOrderOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrNoSeats):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no_seats"})
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_payment_method"})
	case errors.Is(err, service.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session_not_found"})
	case errors.Is(err, service.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat_not_found"})
	case errors.Is(err, service.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order_not_found"})
	case errors.Is(err, service.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket_not_found"})
	}
	logrus.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}
