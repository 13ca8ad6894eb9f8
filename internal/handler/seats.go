package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-ticketing/internal/service"
)

// SeatHandler serves the seat map and seat locks of a session.
type SeatHandler struct {
	Inventory *service.Inventory
	Locks     *service.LockManager
}

// NewSeatHandler constructs a SeatHandler.
func NewSeatHandler(svc *service.Services) *SeatHandler {
	return &SeatHandler{Inventory: svc.Inventory, Locks: svc.Locks}
}

type seatIDsRequest struct {
	SeatIDs []uint64 `json:"seat_ids" validate:"required,min=1,max=10,dive,gt=0"`
}

// SeatMap handles GET /v1/sessions/:id/seats.
func (h *SeatHandler) SeatMap(c echo.Context) error {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	m, err := h.Inventory.SeatMap(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Categories handles GET /v1/sessions/:id/categories.
func (h *SeatHandler) Categories(c echo.Context) error {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	cats, err := h.Inventory.Categories(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

// Lock handles POST /v1/sessions/:id/locks.  All seats are held or none.
func (h *SeatHandler) Lock(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req seatIDsRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.Locks.Lock(c.Request().Context(), sessionID, req.SeatIDs, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"held":       len(res.SeatIDs),
		"seat_ids":   res.SeatIDs,
		"expires_at": res.ExpiresAt,
	})
}

// Unlock handles DELETE /v1/sessions/:id/locks.
func (h *SeatHandler) Unlock(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req seatIDsRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	n, err := h.Locks.Unlock(c.Request().Context(), sessionID, req.SeatIDs, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": n})
}
