// Package service implements the seat inventory and order lifecycle
// engine: seat locks, checkout, payment verification, the expiry sweep
// and ticket admission.  Every state change runs in one database
// transaction and takes row locks in a fixed order: the order row first
// (when there is one), then seats in ascending ID.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/queue"
	"github.com/iliyamo/event-seat-ticketing/internal/repository"
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

// Config holds the tunables of the engine.
type Config struct {
	HoldTTL         time.Duration // lifetime of a seat lock; inherited by the order deadline
	ServiceFeeCents int64         // flat fee added once per order
	SweepBatchSize  int           // max orders and seats handled per sweep phase
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{HoldTTL: 15 * time.Minute, ServiceFeeCents: 2500, SweepBatchSize: 500}
}

// EventPublisher receives domain events after their transaction commits.
type EventPublisher interface {
	PublishTicketsIssued(ctx context.Context, ev queue.TicketsIssuedEvent) error
	PublishOrderReleased(ctx context.Context, ev queue.OrderReleasedEvent) error
}

// TicketCodes issues and checks admission codes.
type TicketCodes interface {
	New() (string, error)
	Valid(code string) bool
}

// Services bundles the engine components.
type Services struct {
	Inventory *Inventory
	Locks     *LockManager
	Orders    *Orders
	Payments  *Payments
	Sweeper   *Sweeper
	Admission *Admission
}

// Option customises New.
type Option func(*base)

// WithPublisher sets the event publisher.  Without it events are dropped.
func WithPublisher(p EventPublisher) Option { return func(b *base) { b.pub = p } }

// WithOrderCodes overrides the order code generator.
func WithOrderCodes(fn func(time.Time) string) Option { return func(b *base) { b.orderCode = fn } }

// New wires the engine components to store.
func New(store *repository.Store, clock clockwork.Clock, codes TicketCodes, cfg Config, opts ...Option) *Services {
	b := &base{
		store:     store,
		clock:     clock,
		cfg:       cfg,
		codes:     codes,
		pub:       noopPublisher{},
		orderCode: utils.NewOrderCode,
	}
	for _, opt := range opts {
		opt(b)
	}
	return &Services{
		Inventory: &Inventory{b},
		Locks:     &LockManager{b},
		Orders:    &Orders{b},
		Payments:  &Payments{b},
		Sweeper:   &Sweeper{b},
		Admission: &Admission{b},
	}
}

// base carries the dependencies every component shares.
type base struct {
	store     *repository.Store
	clock     clockwork.Clock
	cfg       Config
	codes     TicketCodes
	pub       EventPublisher
	orderCode func(time.Time) string
}

// now returns the current time at the precision the database keeps.
func (b *base) now() time.Time {
	return b.clock.Now().UTC().Truncate(time.Microsecond)
}

// lockSeatInSession row-locks a seat and checks it belongs to sessionID.
func (b *base) lockSeatInSession(ctx context.Context, tx *sqlx.Tx, sessionID, seatID uint64) (model.Seat, error) {
	seat, err := b.store.Seats.LockTx(ctx, tx, seatID)
	if err != nil {
		return model.Seat{}, err
	}
	if seat.SessionID != sessionID {
		return model.Seat{}, ErrSeatNotFound
	}
	return seat, nil
}

// releaseOrderTx moves a pending order to a terminal non-sale status and
// gives its seats back.  The caller must hold the order row lock.  It
// returns the number of seats made available.
func (b *base) releaseOrderTx(ctx context.Context, tx *sqlx.Tx, o model.Order, to model.OrderStatus, now time.Time) (int, error) {
	if err := b.store.Orders.TransitionTx(ctx, tx, o.ID, model.OrderPendingPayment, to, now); err != nil {
		return 0, err
	}
	if err := b.store.Payments.MarkRejectedTx(ctx, tx, o.ID, now); err != nil {
		return 0, err
	}
	items, err := b.store.Orders.Items(ctx, tx, o.ID)
	if err != nil {
		return 0, err
	}
	freed := make([]uint64, 0, len(items))
	for _, it := range items {
		seat, err := b.store.Seats.LockTx(ctx, tx, it.SeatID)
		if err != nil {
			return 0, err
		}
		if seat.Status == model.SeatBooked || seat.Status == model.SeatAvailable {
			continue
		}
		if seat.LockedBy != nil && *seat.LockedBy != o.UserID {
			continue
		}
		freed = append(freed, seat.ID)
	}
	if err := b.store.Seats.ReleaseTx(ctx, tx, freed, now); err != nil {
		return 0, err
	}
	if err := b.store.Orders.ReleaseClaimsTx(ctx, tx, o.ID); err != nil {
		return 0, err
	}
	return len(freed), nil
}

func (b *base) publishReleased(ctx context.Context, o model.Order, status model.OrderStatus, freed int, now time.Time) {
	ev := queue.OrderReleasedEvent{
		EventID:    newEventID(),
		OrderCode:  o.OrderCode,
		UserID:     o.UserID,
		SessionID:  o.SessionID,
		Status:     string(status),
		SeatsFreed: freed,
		ReleasedAt: now.Format(time.RFC3339),
	}
	if err := b.pub.PublishOrderReleased(ctx, ev); err != nil {
		logrus.WithError(err).WithField("order_code", o.OrderCode).Warn("publish order.released failed")
	}
}

// logFailure logs expected outcomes at debug and everything else at error.
func logFailure(entry *logrus.Entry, msg string, err error) {
	if IsExpected(err) {
		entry.WithError(err).Debug(msg)
		return
	}
	entry.WithError(err).Error(msg)
}

// canonicalSeatIDs drops zero and duplicate IDs and sorts the rest
// ascending.  Every multi-seat operation locks rows in this order.
func canonicalSeatIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func newEventID() string { return uuid.NewString() }

type noopPublisher struct{}

func (noopPublisher) PublishTicketsIssued(context.Context, queue.TicketsIssuedEvent) error { return nil }
func (noopPublisher) PublishOrderReleased(context.Context, queue.OrderReleasedEvent) error { return nil }
