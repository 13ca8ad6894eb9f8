package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

const seatColumns = `id, session_id, category_id, seat_code, row_label, seat_number,
	status, locked_by, locked_until, created_at, updated_at`

// SeatRepo provides access to the seats table.  Every write method keeps
// status, locked_by and locked_until consistent with each other.
type SeatRepo struct {
	db        *sqlx.DB
	forUpdate string
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sqlx.DB) *SeatRepo {
	return &SeatRepo{db: db, forUpdate: database.ForUpdate(db.DriverName())}
}

// CreateBulk inserts multiple seats in a single statement.  New seats are
// always available.  IDs are not populated; reload with ListBySession.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat, now time.Time) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (session_id, category_id, seat_code, row_label, seat_number, status, created_at, updated_at) VALUES `
	args := make([]interface{}, 0, len(seats)*8)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.SessionID, s.CategoryID, s.SeatCode, s.RowLabel, s.SeatNumber, model.SeatAvailable, now, now)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListBySession returns every seat of a session in a stable order.  This
// is a plain read: no row is locked and no stale lock is rewritten.
func (r *SeatRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.Seat, error) {
	seats := []model.Seat{}
	err := r.db.SelectContext(ctx, &seats,
		`SELECT `+seatColumns+` FROM seats WHERE session_id = ? ORDER BY id`, sessionID)
	return seats, err
}

// LockTx takes the row lock on one seat and returns its current state.
// Callers locking several seats must call it in ascending ID order.
func (r *SeatRepo) LockTx(ctx context.Context, tx *sqlx.Tx, seatID uint64) (model.Seat, error) {
	var s model.Seat
	err := tx.GetContext(ctx, &s, `SELECT `+seatColumns+` FROM seats WHERE id = ?`+r.forUpdate, seatID)
	return s, noRows(err, ErrSeatNotFound)
}

// MarkLockedTx stamps the seats with one holder and one expiry.
func (r *SeatRepo) MarkLockedTx(ctx context.Context, tx *sqlx.Tx, seatIDs []uint64, holder uint64, until, now time.Time) error {
	return r.updateTx(ctx, tx,
		`UPDATE seats SET status = ?, locked_by = ?, locked_until = ?, updated_at = ? WHERE id IN (?)`,
		seatIDs, model.SeatLocked, holder, until, now)
}

// MarkBookedTx makes the sale permanent and clears the lock fields.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sqlx.Tx, seatIDs []uint64, now time.Time) error {
	return r.updateTx(ctx, tx,
		`UPDATE seats SET status = ?, locked_by = NULL, locked_until = NULL, updated_at = ? WHERE id IN (?)`,
		seatIDs, model.SeatBooked, now)
}

// ReleaseTx returns the seats to available and clears the lock fields.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sqlx.Tx, seatIDs []uint64, now time.Time) error {
	return r.updateTx(ctx, tx,
		`UPDATE seats SET status = ?, locked_by = NULL, locked_until = NULL, updated_at = ? WHERE id IN (?)`,
		seatIDs, model.SeatAvailable, now)
}

func (r *SeatRepo) updateTx(ctx context.Context, tx *sqlx.Tx, query string, seatIDs []uint64, args ...interface{}) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q, inArgs, err := sqlx.In(query, append(args, seatIDs)...)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, q, inArgs...)
	return err
}

// ListStaleLockIDs returns seats whose lock expired at or before now and
// that no live order item still claims.  The result is only a work list:
// the sweeper re-checks each seat under its row lock.
func (r *SeatRepo) ListStaleLockIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT s.id FROM seats s
		WHERE s.status = ? AND s.locked_until <= ?
		  AND NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.active_seat_id = s.id)
		ORDER BY s.id
		LIMIT ?`, model.SeatLocked, now, limit)
	return ids, err
}
