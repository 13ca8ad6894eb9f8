package service

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/metrics"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

// Sweeper reclaims inventory held by unpaid orders and lapsed holds.
type Sweeper struct{ *base }

// SweepResult counts what one pass did.
type SweepResult struct {
	OrdersExpired int `json:"orders_expired"`
	SeatsReleased int `json:"seats_released"`
	Failures      int `json:"failures"`
}

// errSkip marks an item that no longer needs sweeping.
var errSkip = errors.New("skip")

// RunOnce expires pending orders past their deadline and then releases
// stale locks that no order claims.  Each order and each seat is handled
// in its own transaction and re-checked under its row lock, so running
// twice, or on two replicas at once, changes nothing the second time.  A
// failure on one item is counted and the pass moves on.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	orderIDs, err := s.store.Orders.ListExpiredPendingIDs(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		return res, err
	}
	for _, id := range orderIDs {
		if err := ctx.Err(); err != nil {
			s.finish(res)
			return res, err
		}
		freed, err := s.expireOrder(ctx, id)
		switch {
		case errors.Is(err, errSkip):
		case err != nil:
			res.Failures++
			logrus.WithError(err).WithField("order_id", id).Error("sweep: expire order failed")
		default:
			res.OrdersExpired++
			res.SeatsReleased += freed
		}
	}

	seatIDs, err := s.store.Seats.ListStaleLockIDs(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		res.Failures++
		s.finish(res)
		return res, err
	}
	for _, id := range seatIDs {
		if err := ctx.Err(); err != nil {
			s.finish(res)
			return res, err
		}
		err := s.releaseStaleSeat(ctx, id)
		switch {
		case errors.Is(err, errSkip):
		case err != nil:
			res.Failures++
			logrus.WithError(err).WithField("seat_id", id).Error("sweep: release seat failed")
		default:
			res.SeatsReleased++
		}
	}

	s.finish(res)
	return res, nil
}

func (s *Sweeper) expireOrder(ctx context.Context, orderID uint64) (int, error) {
	now := s.now()
	var (
		order model.Order
		freed int
	)
	err := database.WithTx(ctx, s.store.DB, func(tx *sqlx.Tx) error {
		var err error
		order, err = s.store.Orders.LockTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != model.OrderPendingPayment || now.Before(order.PaymentDeadline) {
			return errSkip
		}
		freed, err = s.releaseOrderTx(ctx, tx, order, model.OrderExpired, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"order_code": order.OrderCode, "seats_freed": freed}).Info("order expired")
	s.publishReleased(ctx, order, model.OrderExpired, freed, now)
	return freed, nil
}

func (s *Sweeper) releaseStaleSeat(ctx context.Context, seatID uint64) error {
	now := s.now()
	return database.WithTx(ctx, s.store.DB, func(tx *sqlx.Tx) error {
		seat, err := s.store.Seats.LockTx(ctx, tx, seatID)
		if err != nil {
			return err
		}
		if seat.Status != model.SeatLocked || !seat.IsAvailable(now) {
			return errSkip
		}
		claimed, err := s.store.Orders.SeatClaimedTx(ctx, tx, seatID)
		if err != nil {
			return err
		}
		if claimed {
			return errSkip
		}
		return s.store.Seats.ReleaseTx(ctx, tx, []uint64{seatID}, now)
	})
}

func (s *Sweeper) finish(res SweepResult) {
	outcome := "ok"
	if res.Failures > 0 {
		outcome = "partial"
	}
	metrics.SweepRuns.WithLabelValues(outcome).Inc()
	metrics.SweepOrdersExpired.Add(float64(res.OrdersExpired))
	metrics.SweepSeatsReleased.Add(float64(res.SeatsReleased))
	metrics.SweepFailures.Add(float64(res.Failures))

	entry := logrus.WithFields(logrus.Fields{
		"orders_expired": res.OrdersExpired,
		"seats_released": res.SeatsReleased,
		"failures":       res.Failures,
	})
	if res.OrdersExpired+res.SeatsReleased+res.Failures == 0 {
		entry.Debug("sweep finished")
		return
	}
	entry.Info("sweep finished")
}
