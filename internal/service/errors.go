package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/repository"
)

// Contention: expected outcomes of buyers racing for the same seats.
var (
	ErrSeatUnavailable = errors.New("seat unavailable")
	ErrHoldExpired     = errors.New("seat hold missing or expired")
	ErrOrderNotPending = errors.New("order is not pending payment")
)

// State conflicts and input errors.
var (
	ErrOrderNotPaid         = errors.New("order is not paid")
	ErrSessionClosed        = errors.New("session is not open for sale")
	ErrNoSeats              = errors.New("no seats requested")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNotOrderOwner        = errors.New("order belongs to another buyer")
)

// ErrPaymentDeadlinePassed is returned when a still-pending order is
// verified after its deadline.  It also matches ErrOrderNotPending.
var ErrPaymentDeadlinePassed error = deadlinePassedError{}

type deadlinePassedError struct{}

func (deadlinePassedError) Error() string { return "payment deadline has passed" }

func (deadlinePassedError) Is(target error) bool { return target == ErrOrderNotPending }

// Not found.  These alias the repository sentinels so callers only need
// to import this package.
var (
	ErrSessionNotFound = repository.ErrSessionNotFound
	ErrSeatNotFound    = repository.ErrSeatNotFound
	ErrOrderNotFound   = repository.ErrOrderNotFound
	ErrTicketNotFound  = repository.ErrTicketNotFound
)

// SeatUnavailableError names the first seat that could not be locked.
type SeatUnavailableError struct {
	SeatID   uint64
	SeatCode string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat %s is unavailable", e.SeatCode)
}

func (e *SeatUnavailableError) Is(target error) bool { return target == ErrSeatUnavailable }

// HoldExpiredError names the first seat the buyer no longer holds.
type HoldExpiredError struct {
	SeatID   uint64
	SeatCode string
}

func (e *HoldExpiredError) Error() string {
	return fmt.Sprintf("hold on seat %s is missing or expired", e.SeatCode)
}

func (e *HoldExpiredError) Is(target error) bool { return target == ErrHoldExpired }

// OrderStateError reports an order that is not in the state an operation
// requires.  It matches ErrOrderNotPending or ErrOrderNotPaid.
type OrderStateError struct {
	OrderCode string
	Status    model.OrderStatus
	want      error
}

func (e *OrderStateError) Error() string {
	return fmt.Sprintf("order %s is %s: %v", e.OrderCode, e.Status, e.want)
}

func (e *OrderStateError) Unwrap() error { return e.want }

func notPending(o model.Order) error {
	return &OrderStateError{OrderCode: o.OrderCode, Status: o.Status, want: ErrOrderNotPending}
}

func notPaid(o model.Order) error {
	return &OrderStateError{OrderCode: o.OrderCode, Status: o.Status, want: ErrOrderNotPaid}
}

// IsExpected reports whether err is a contention, state-conflict,
// validation or not-found outcome rather than a system failure.
func IsExpected(err error) bool {
	for _, target := range []error{
		ErrSeatUnavailable, ErrHoldExpired, ErrOrderNotPending, ErrOrderNotPaid,
		ErrPaymentDeadlinePassed, ErrSessionClosed, ErrNoSeats, ErrInvalidPaymentMethod,
		ErrNotOrderOwner, ErrSessionNotFound, ErrSeatNotFound, ErrOrderNotFound, ErrTicketNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
