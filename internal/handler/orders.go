package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-ticketing/internal/middleware"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/repository"
	"github.com/iliyamo/event-seat-ticketing/internal/service"
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

// OrderHandler exposes checkout and the order lifecycle.  Ownership of an
// order is checked here; the services never look at roles.
type OrderHandler struct {
	Orders   *service.Orders
	Payments *service.Payments
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(svc *service.Services) *OrderHandler {
	return &OrderHandler{Orders: svc.Orders, Payments: svc.Payments}
}

type checkoutRequest struct {
	SeatIDs       []uint64 `json:"seat_ids" validate:"required,min=1,max=10,dive,gt=0"`
	PaymentMethod string   `json:"payment_method" validate:"required,oneof=bank_transfer midtrans xendit cash other"`
}

type transferProofRequest struct {
	BankName      string    `json:"bank_name" validate:"required,max=100"`
	AccountNumber string    `json:"account_number" validate:"required,max=50"`
	AccountName   string    `json:"account_name" validate:"required,max=100"`
	ProofRef      string    `json:"transfer_proof" validate:"required,max=500"`
	TransferredAt time.Time `json:"transferred_at" validate:"required"`
}

// Checkout handles POST /v1/sessions/:id/checkout.
func (h *OrderHandler) Checkout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req checkoutRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	order, err := h.Orders.Checkout(c.Request().Context(), service.CheckoutInput{
		SessionID:     sessionID,
		SeatIDs:       req.SeatIDs,
		HolderID:      userID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_code":       order.OrderCode,
		"subtotal_amount":  order.SubtotalCents,
		"service_fee":      order.ServiceFeeCents,
		"total_amount":     order.TotalCents,
		"payment_deadline": order.PaymentDeadline,
		"items":            order.Items,
	})
}

// Mine handles GET /v1/orders.
func (h *OrderHandler) Mine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListForBuyer(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// Get handles GET /v1/orders/:code.  Buyers only see their own orders;
// finance and admin see all.  Paid orders include their tickets.
func (h *OrderHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	order, err := h.Orders.Get(ctx, c.Param("code"))
	if err != nil {
		return writeError(c, err)
	}
	if middleware.Role(c) == utils.RoleBuyer && order.UserID != userID {
		// Same answer as an unknown code.
		return writeError(c, service.ErrOrderNotFound)
	}
	resp := echo.Map{"order": order}
	if order.Status == model.OrderPaid || order.Status == model.OrderRefunded {
		tickets, err := h.Orders.Tickets(ctx, order.ID)
		if err != nil {
			return writeError(c, err)
		}
		resp["tickets"] = tickets
	}
	return c.JSON(http.StatusOK, resp)
}

// TransferProof handles POST /v1/orders/:code/transfer-proof.
func (h *OrderHandler) TransferProof(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req transferProofRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	err = h.Orders.SubmitTransferProof(c.Request().Context(), c.Param("code"), userID, repository.TransferProof{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		ProofRef:      req.ProofRef,
		TransferredAt: req.TransferredAt.UTC(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "submitted"})
}

// Verify handles POST /v1/orders/:code/verify.
func (h *OrderHandler) Verify(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	res, err := h.Payments.Verify(c.Request().Context(), c.Param("code"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_code":     res.Order.OrderCode,
		"status":         res.Order.Status,
		"tickets_issued": len(res.Tickets),
		"tickets":        res.Tickets,
	})
}

// Cancel handles POST /v1/orders/:code/cancel.
func (h *OrderHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	order, err := h.Orders.Cancel(c.Request().Context(), c.Param("code"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order_code": order.OrderCode, "status": order.Status})
}

// Refund handles POST /v1/orders/:code/refund.
func (h *OrderHandler) Refund(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	voided, err := h.Payments.Refund(c.Request().Context(), c.Param("code"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": model.OrderRefunded, "tickets_voided": voided})
}
