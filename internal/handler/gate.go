package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/service"
)

// GateHandler is used by gate officers to admit ticket holders.
type GateHandler struct {
	Admission *service.Admission
}

// NewGateHandler constructs a GateHandler.
func NewGateHandler(svc *service.Services) *GateHandler {
	return &GateHandler{Admission: svc.Admission}
}

type admitRequest struct {
	TicketCode string `json:"ticket_code" validate:"required,max=200"`
	DeviceInfo string `json:"device_info" validate:"max=255"`
}

// Admit handles POST /v1/gate/admit.  Every outcome is recorded in the
// scan log; the HTTP status tells the officer what happened.
func (h *GateHandler) Admit(c echo.Context) error {
	officerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req admitRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.Admission.Admit(c.Request().Context(), service.AdmitInput{
		TicketCode: req.TicketCode,
		OfficerID:  officerID,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		return writeError(c, err)
	}

	switch res.Result {
	case model.ScanSuccess:
		t := res.Ticket
		return c.JSON(http.StatusOK, echo.Map{
			"result":   res.Result,
			"event":    t.EventNameSnapshot,
			"session":  t.SessionNameSnapshot,
			"venue":    t.VenueSnapshot,
			"seat":     t.SeatCodeSnapshot,
			"category": t.CategoryNameSnapshot,
		})
	case model.ScanAlreadyUsed:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":      "already_used",
			"used_at":    res.UsedAt,
			"scanned_by": res.ScannedBy,
		})
	case model.ScanVoided:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "voided"})
	default:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid_code"})
	}
}

// Scans handles GET /v1/gate/scans/:code.
func (h *GateHandler) Scans(c echo.Context) error {
	logs, err := h.Admission.ScanHistory(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"scans": logs})
}
