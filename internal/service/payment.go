package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/metrics"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/queue"
)

// Payments confirms and reverses payment on orders.
type Payments struct{ *base }

// VerifyResult is a paid order and the tickets issued for it.
type VerifyResult struct {
	Order   model.Order    `json:"order"`
	Tickets []model.Ticket `json:"tickets"`
}

// Verify confirms payment on a pending order.  In one transaction the
// order becomes paid, its payment verified, its seats booked and one
// ticket is issued per item.  Nothing is written unless all of it
// succeeds.  tickets.issued is published after the commit.
func (p *Payments) Verify(ctx context.Context, code string, verifierID uint64) (*VerifyResult, error) {
	now := p.now()
	log := logrus.WithFields(logrus.Fields{"order_code": code, "verifier_id": verifierID})

	var (
		res    VerifyResult
		detail model.SessionDetail
	)
	err := database.WithTx(ctx, p.store.DB, func(tx *sqlx.Tx) error {
		order, err := p.store.Orders.LockByCodeTx(ctx, tx, code)
		if err != nil {
			return err
		}
		if order.Status != model.OrderPendingPayment {
			return notPending(order)
		}
		if !now.Before(order.PaymentDeadline) {
			return ErrPaymentDeadlinePassed
		}

		items, err := p.store.Orders.Items(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		seatIDs := make([]uint64, 0, len(items))
		for _, it := range items {
			seatIDs = append(seatIDs, it.SeatID)
		}
		seatIDs = canonicalSeatIDs(seatIDs)
		for _, id := range seatIDs {
			seat, err := p.store.Seats.LockTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if !seat.IsLockedBy(order.UserID, now) {
				return &SeatUnavailableError{SeatID: seat.ID, SeatCode: seat.SeatCode}
			}
		}

		detail, err = p.store.Catalog.GetSessionDetail(ctx, tx, order.SessionID)
		if err != nil {
			return err
		}

		if err := p.store.Orders.MarkPaidTx(ctx, tx, order.ID, verifierID, now); err != nil {
			return err
		}
		if err := p.store.Payments.MarkVerifiedTx(ctx, tx, order.ID, order.TotalCents, now); err != nil {
			return err
		}
		if err := p.store.Seats.MarkBookedTx(ctx, tx, seatIDs, now); err != nil {
			return err
		}

		tickets := make([]model.Ticket, 0, len(items))
		for _, it := range items {
			ticketCode, err := p.codes.New()
			if err != nil {
				return fmt.Errorf("ticket code: %w", err)
			}
			t := model.Ticket{
				OrderID:                order.ID,
				OrderItemID:            it.ID,
				UserID:                 order.UserID,
				TicketCode:             ticketCode,
				EventNameSnapshot:      detail.EventName,
				SessionNameSnapshot:    detail.Name,
				EventDateSnapshot:      detail.EventDate,
				StartTimeSnapshot:      detail.StartTime,
				VenueSnapshot:          detail.Venue,
				SeatCodeSnapshot:       it.SeatCodeSnapshot,
				CategoryNameSnapshot:   it.CategoryNameSnapshot,
				PricePaidSnapshotCents: it.PriceSnapshotCents,
				Status:                 model.TicketIssued,
				CreatedAt:              now,
				UpdatedAt:              now,
			}
			if err := p.store.Tickets.CreateTx(ctx, tx, &t); err != nil {
				return err
			}
			tickets = append(tickets, t)
		}

		payment, err := p.store.Payments.GetByOrder(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		order.Payment = &payment
		order.Status = model.OrderPaid
		order.PaidAt = &now
		order.VerifiedBy = &verifierID
		order.UpdatedAt = now
		order.Items = items
		res = VerifyResult{Order: order, Tickets: tickets}
		return nil
	})
	if err != nil {
		logFailure(log, "payment verification rejected", err)
		return nil, err
	}

	metrics.TicketsIssued.Add(float64(len(res.Tickets)))
	log.WithField("tickets", len(res.Tickets)).Info("payment verified")
	p.publishIssued(ctx, res, detail, verifierID, now)
	return &res, nil
}

func (p *Payments) publishIssued(ctx context.Context, res VerifyResult, detail model.SessionDetail, verifierID uint64, now time.Time) {
	ev := queue.TicketsIssuedEvent{
		EventID:     newEventID(),
		OrderCode:   res.Order.OrderCode,
		UserID:      res.Order.UserID,
		SessionID:   res.Order.SessionID,
		EventName:   detail.EventName,
		SessionName: detail.Name,
		Venue:       detail.Venue,
		EventDate:   detail.EventDate.Format("2006-01-02"),
		StartTime:   detail.StartTime,
		TotalCents:  res.Order.TotalCents,
		VerifiedBy:  verifierID,
		VerifiedAt:  now.Format(time.RFC3339),
	}
	for _, t := range res.Tickets {
		ev.Tickets = append(ev.Tickets, queue.IssuedTicket{
			TicketCode:   t.TicketCode,
			SeatCode:     t.SeatCodeSnapshot,
			CategoryName: t.CategoryNameSnapshot,
			PriceCents:   t.PricePaidSnapshotCents,
		})
	}
	if err := p.pub.PublishTicketsIssued(ctx, ev); err != nil {
		logrus.WithError(err).WithField("order_code", res.Order.OrderCode).Warn("publish tickets.issued failed")
	}
}

// Refund reverses a paid order.  Issued tickets are voided; tickets that
// were already used stay used and the seats stay booked.  It returns the
// number of tickets voided.
func (p *Payments) Refund(ctx context.Context, code string, actorID uint64) (int64, error) {
	now := p.now()
	var voided int64
	err := database.WithTx(ctx, p.store.DB, func(tx *sqlx.Tx) error {
		order, err := p.store.Orders.LockByCodeTx(ctx, tx, code)
		if err != nil {
			return err
		}
		if order.Status != model.OrderPaid {
			return notPaid(order)
		}
		if err := p.store.Orders.TransitionTx(ctx, tx, order.ID, model.OrderPaid, model.OrderRefunded, now); err != nil {
			return err
		}
		voided, err = p.store.Tickets.VoidIssuedByOrderTx(ctx, tx, order.ID, now)
		return err
	})
	log := logrus.WithFields(logrus.Fields{"order_code": code, "actor_id": actorID})
	if err != nil {
		logFailure(log, "refund rejected", err)
		return 0, err
	}
	log.WithField("tickets_voided", voided).Info("order refunded")
	return voided, nil
}
