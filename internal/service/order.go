package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/repository"
)

// Orders creates orders from held seats and manages their lifecycle up to
// payment.
type Orders struct{ *base }

// CheckoutInput is the buyer's request to turn held seats into an order.
type CheckoutInput struct {
	SessionID     uint64
	SeatIDs       []uint64
	HolderID      uint64
	PaymentMethod string
}

var paymentMethods = map[string]bool{
	model.PaymentBankTransfer: true,
	model.PaymentMidtrans:     true,
	model.PaymentXendit:       true,
	model.PaymentCash:         true,
	model.PaymentOther:        true,
}

// Checkout creates a pending order for seats the holder currently holds.
// Prices, category names and seat codes are copied into the items at this
// instant.  The payment deadline is the earliest hold expiry among the
// seats.  Order header, items and payment row are written in one
// transaction; a seat the holder does not hold fails the whole checkout
// with a *HoldExpiredError.
func (o *Orders) Checkout(ctx context.Context, in CheckoutInput) (*model.Order, error) {
	ids := canonicalSeatIDs(in.SeatIDs)
	if len(ids) == 0 {
		return nil, ErrNoSeats
	}
	if !paymentMethods[in.PaymentMethod] {
		return nil, ErrInvalidPaymentMethod
	}
	now := o.now()
	log := logrus.WithFields(logrus.Fields{"session_id": in.SessionID, "seat_ids": ids, "holder_id": in.HolderID})

	var order model.Order
	err := database.WithTx(ctx, o.store.DB, func(tx *sqlx.Tx) error {
		if _, err := o.store.Catalog.GetSession(ctx, tx, in.SessionID); err != nil {
			return err
		}

		seats := make([]model.Seat, 0, len(ids))
		var deadline time.Time
		for _, id := range ids {
			seat, err := o.lockSeatInSession(ctx, tx, in.SessionID, id)
			if err != nil {
				return err
			}
			if !seat.IsLockedBy(in.HolderID, now) {
				return &HoldExpiredError{SeatID: seat.ID, SeatCode: seat.SeatCode}
			}
			claimed, err := o.store.Orders.SeatClaimedTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if claimed {
				return &SeatUnavailableError{SeatID: seat.ID, SeatCode: seat.SeatCode}
			}
			if deadline.IsZero() || seat.LockedUntil.Before(deadline) {
				deadline = *seat.LockedUntil
			}
			seats = append(seats, seat)
		}

		catIDs := make([]uint64, 0, len(seats))
		for _, s := range seats {
			catIDs = append(catIDs, s.CategoryID)
		}
		cats, err := o.store.Catalog.CategoriesByID(ctx, tx, catIDs)
		if err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(seats))
		var subtotal int64
		for _, s := range seats {
			cat := cats[s.CategoryID]
			subtotal += cat.PriceCents
			items = append(items, model.OrderItem{
				SeatID:               s.ID,
				CategoryID:           cat.ID,
				CategoryNameSnapshot: cat.Name,
				PriceSnapshotCents:   cat.PriceCents,
				SeatCodeSnapshot:     s.SeatCode,
				CreatedAt:            now,
			})
		}

		order = model.Order{
			UserID:          in.HolderID,
			SessionID:       in.SessionID,
			OrderCode:       o.orderCode(now),
			SubtotalCents:   subtotal,
			ServiceFeeCents: o.cfg.ServiceFeeCents,
			TotalCents:      subtotal + o.cfg.ServiceFeeCents,
			Status:          model.OrderPendingPayment,
			PaymentDeadline: deadline,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := o.store.Orders.CreateTx(ctx, tx, &order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := o.store.Orders.CreateItemsTx(ctx, tx, items); err != nil {
			var claimed *repository.SeatClaimedError
			if errors.As(err, &claimed) {
				return &SeatUnavailableError{SeatID: claimed.SeatID, SeatCode: seatCode(seats, claimed.SeatID)}
			}
			return err
		}
		payment := model.OrderPayment{
			OrderID:       order.ID,
			PaymentMethod: in.PaymentMethod,
			Status:        model.PaymentPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := o.store.Payments.CreateTx(ctx, tx, &payment); err != nil {
			return err
		}
		order.Payment = &payment
		order.Items, err = o.store.Orders.Items(ctx, tx, order.ID)
		return err
	})
	if err != nil {
		logFailure(log, "checkout rejected", err)
		return nil, err
	}
	log.WithFields(logrus.Fields{"order_code": order.OrderCode, "total_cents": order.TotalCents}).Info("order created")
	return &order, nil
}

// Get returns an order with its items and payment.
func (o *Orders) Get(ctx context.Context, code string) (*model.Order, error) {
	order, err := o.store.Orders.GetByCode(ctx, o.store.DB, code)
	if err != nil {
		return nil, err
	}
	if order.Items, err = o.store.Orders.Items(ctx, o.store.DB, order.ID); err != nil {
		return nil, err
	}
	payment, err := o.store.Payments.GetByOrder(ctx, o.store.DB, order.ID)
	if err != nil {
		return nil, err
	}
	order.Payment = &payment
	return &order, nil
}

// ListForBuyer returns a buyer's orders, newest first.
func (o *Orders) ListForBuyer(ctx context.Context, buyerID uint64) ([]model.Order, error) {
	return o.store.Orders.ListByUser(ctx, buyerID)
}

// SubmitTransferProof attaches manual bank-transfer evidence to a pending
// order for a finance officer to review.
func (o *Orders) SubmitTransferProof(ctx context.Context, code string, buyerID uint64, proof repository.TransferProof) error {
	now := o.now()
	err := database.WithTx(ctx, o.store.DB, func(tx *sqlx.Tx) error {
		order, err := o.store.Orders.LockByCodeTx(ctx, tx, code)
		if err != nil {
			return err
		}
		if order.UserID != buyerID {
			return ErrNotOrderOwner
		}
		if order.Status != model.OrderPendingPayment {
			return notPending(order)
		}
		return o.store.Payments.SaveTransferProofTx(ctx, tx, order.ID, proof, now)
	})
	if err != nil {
		logFailure(logrus.WithField("order_code", code), "transfer proof rejected", err)
	}
	return err
}

// Cancel cancels a pending order on behalf of an admin.  Seats are given
// back exactly as the sweeper does for expired orders.
func (o *Orders) Cancel(ctx context.Context, code string, actorID uint64) (*model.Order, error) {
	now := o.now()
	var (
		order model.Order
		freed int
	)
	err := database.WithTx(ctx, o.store.DB, func(tx *sqlx.Tx) error {
		var err error
		order, err = o.store.Orders.LockByCodeTx(ctx, tx, code)
		if err != nil {
			return err
		}
		if order.Status != model.OrderPendingPayment {
			return notPending(order)
		}
		freed, err = o.releaseOrderTx(ctx, tx, order, model.OrderCancelled, now)
		return err
	})
	log := logrus.WithFields(logrus.Fields{"order_code": code, "actor_id": actorID})
	if err != nil {
		logFailure(log, "order cancel failed", err)
		return nil, err
	}
	order.Status = model.OrderCancelled
	order.UpdatedAt = now
	log.WithField("seats_freed", freed).Info("order cancelled")
	o.publishReleased(ctx, order, model.OrderCancelled, freed, now)
	return &order, nil
}

// Tickets returns the tickets issued for an order.
func (o *Orders) Tickets(ctx context.Context, orderID uint64) ([]model.Ticket, error) {
	return o.store.Tickets.ListByOrder(ctx, o.store.DB, orderID)
}

// Ticket returns a ticket by its admission code.
func (o *Orders) Ticket(ctx context.Context, code string) (model.Ticket, error) {
	return o.store.Tickets.GetByCode(ctx, o.store.DB, code)
}

func seatCode(seats []model.Seat, id uint64) string {
	for _, s := range seats {
		if s.ID == id {
			return s.SeatCode
		}
	}
	return ""
}
