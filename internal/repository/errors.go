// Package repository defines the SQL data access for the ticketing tables.
// Methods suffixed with Tx run inside a caller-owned transaction; the
// caller is responsible for committing or rolling back.  Sentinel errors
// let higher layers tell missing rows apart from database failures.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrCategoryNotFound = errors.New("ticket category not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPaymentNotFound  = errors.New("order payment not found")
	ErrTicketNotFound   = errors.New("ticket not found")
)

// ErrConflict is returned when a compare-and-set update matched no row
// because the row was no longer in the expected state.
var ErrConflict = errors.New("conflict")

// SeatClaimedError is returned when inserting an order item hits the
// unique claim on active_seat_id.
type SeatClaimedError struct {
	SeatID uint64
}

func (e *SeatClaimedError) Error() string {
	return fmt.Sprintf("seat %d already claimed by a live order", e.SeatID)
}

func (e *SeatClaimedError) Is(target error) bool { return target == ErrConflict }

// noRows maps sql.ErrNoRows to the given sentinel.
func noRows(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// expectOne turns a zero-row update into ErrConflict.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
