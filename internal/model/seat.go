package model

import "time"

// SeatStatus is the stored inventory state of a seat.  The "used"
// presentation state belongs to the ticket issued for the seat, never to
// the seat itself.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatLocked    SeatStatus = "locked"
	SeatBooked    SeatStatus = "booked"
)

// Seat is a session-scoped inventory unit.  Seats are uniquely identified
// by their session and human seat code (e.g. "V1", "A-12").
//
// Fields:
//
//	ID          – primary key identifier.
//	SessionID   – session the seat is sold for.
//	CategoryID  – ticket category that prices the seat.
//	SeatCode    – printed seat code.
//	RowLabel    – optional row used to group the seat map.
//	SeatNumber  – optional position within the row.
//	Status      – available, locked or booked.
//	LockedBy    – holder of the current lock; nil unless Status is locked.
//	LockedUntil – hold expiry; nil unless Status is locked.
type Seat struct {
	ID          uint64     `db:"id" json:"id"`                     // seats.id
	SessionID   uint64     `db:"session_id" json:"session_id"`     // seats.session_id
	CategoryID  uint64     `db:"category_id" json:"category_id"`   // seats.category_id
	SeatCode    string     `db:"seat_code" json:"seat_code"`       // seats.seat_code
	RowLabel    *string    `db:"row_label" json:"row_label"`       // seats.row_label
	SeatNumber  *uint32    `db:"seat_number" json:"seat_number"`   // seats.seat_number
	Status      SeatStatus `db:"status" json:"status"`             // seats.status
	LockedBy    *uint64    `db:"locked_by" json:"-"`               // seats.locked_by
	LockedUntil *time.Time `db:"locked_until" json:"locked_until"` // seats.locked_until
	CreatedAt   time.Time  `db:"created_at" json:"-"`              // seats.created_at
	UpdatedAt   time.Time  `db:"updated_at" json:"-"`              // seats.updated_at
}

// IsAvailable reports whether the seat can be offered to a buyer at now.
// A lock whose expiry has passed counts as available.  The check never
// writes; stored state only changes under a row lock.
func (s Seat) IsAvailable(now time.Time) bool {
	switch s.Status {
	case SeatAvailable:
		return true
	case SeatLocked:
		return s.LockedUntil == nil || !s.LockedUntil.After(now)
	default:
		return false
	}
}

// IsLockedBy reports whether holder owns an unexpired lock on the seat.
func (s Seat) IsLockedBy(holder uint64, now time.Time) bool {
	return s.Status == SeatLocked &&
		s.LockedBy != nil && *s.LockedBy == holder &&
		s.LockedUntil != nil && s.LockedUntil.After(now)
}

// DisplayStatus is the status shown on a seat map: expired locks are
// rendered as available.
func (s Seat) DisplayStatus(now time.Time) SeatStatus {
	if s.Status == SeatLocked && s.IsAvailable(now) {
		return SeatAvailable
	}
	return s.Status
}
