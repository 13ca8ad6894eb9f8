package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

const (
	orderColumns = `id, user_id, session_id, order_code, subtotal_cents, service_fee_cents, total_cents,
		status, payment_deadline, paid_at, verified_by, notes, created_at, updated_at`
	itemColumns = `id, order_id, seat_id, active_seat_id, category_id, category_name_snapshot,
		price_snapshot_cents, seat_code_snapshot, created_at`
)

// OrderRepo provides access to orders and their items.
type OrderRepo struct {
	db        *sqlx.DB
	forUpdate string
}

// NewOrderRepo constructs an OrderRepo with the given DB handle.
func NewOrderRepo(db *sqlx.DB) *OrderRepo {
	return &OrderRepo{db: db, forUpdate: database.ForUpdate(db.DriverName())}
}

// CreateTx inserts the order header and populates its ID.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (user_id, session_id, order_code, subtotal_cents, service_fee_cents, total_cents,
		                    status, payment_deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.SessionID, o.OrderCode, o.SubtotalCents, o.ServiceFeeCents, o.TotalCents,
		o.Status, o.PaymentDeadline, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// CreateItemsTx inserts the order's items.  Each item claims its seat
// through active_seat_id; a seat already claimed by a live order yields a
// *SeatClaimedError.
func (r *OrderRepo) CreateItemsTx(ctx context.Context, tx *sqlx.Tx, items []model.OrderItem) error {
	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, seat_id, active_seat_id, category_id, category_name_snapshot,
			                         price_snapshot_cents, seat_code_snapshot, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.OrderID, it.SeatID, it.SeatID, it.CategoryID, it.CategoryNameSnapshot,
			it.PriceSnapshotCents, it.SeatCodeSnapshot, it.CreatedAt)
		if database.IsUniqueViolation(err) {
			return &SeatClaimedError{SeatID: it.SeatID}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByCode returns an order by its public code without locking it.
func (r *OrderRepo) GetByCode(ctx context.Context, q sqlx.QueryerContext, code string) (model.Order, error) {
	var o model.Order
	err := sqlx.GetContext(ctx, q, &o, `SELECT `+orderColumns+` FROM orders WHERE order_code = ?`, code)
	return o, noRows(err, ErrOrderNotFound)
}

// LockByCodeTx takes the row lock on an order.  Verification, refunds,
// cancellation and the sweeper all go through this lock, which serializes
// them per order.
func (r *OrderRepo) LockByCodeTx(ctx context.Context, tx *sqlx.Tx, code string) (model.Order, error) {
	var o model.Order
	err := tx.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE order_code = ?`+r.forUpdate, code)
	return o, noRows(err, ErrOrderNotFound)
}

// LockTx is LockByCodeTx keyed by primary key.
func (r *OrderRepo) LockTx(ctx context.Context, tx *sqlx.Tx, id uint64) (model.Order, error) {
	var o model.Order
	err := tx.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`+r.forUpdate, id)
	return o, noRows(err, ErrOrderNotFound)
}

// Items returns the order's items ordered by seat ID.
func (r *OrderRepo) Items(ctx context.Context, q sqlx.QueryerContext, orderID uint64) ([]model.OrderItem, error) {
	items := []model.OrderItem{}
	err := sqlx.SelectContext(ctx, q, &items,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = ? ORDER BY seat_id`, orderID)
	return items, err
}

// TransitionTx moves an order from one status to another.  It returns
// ErrConflict when the order is no longer in the from status.
func (r *OrderRepo) TransitionTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, from, to model.OrderStatus, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`, to, now, orderID, from)
	return expectOne(res, err)
}

// MarkPaidTx records verification on a pending order.
func (r *OrderRepo) MarkPaidTx(ctx context.Context, tx *sqlx.Tx, orderID, verifierID uint64, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, paid_at = ?, verified_by = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		model.OrderPaid, now, verifierID, now, orderID, model.OrderPendingPayment)
	return expectOne(res, err)
}

// ReleaseClaimsTx drops the order's seat claims so the seats can be sold
// again.  The items themselves stay as history.
func (r *OrderRepo) ReleaseClaimsTx(ctx context.Context, tx *sqlx.Tx, orderID uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE order_items SET active_seat_id = NULL WHERE order_id = ?`, orderID)
	return err
}

// SeatClaimedTx reports whether a live order item claims the seat.  On
// MySQL the read is a locking read so it sees claims committed after the
// transaction's snapshot was taken.
func (r *OrderRepo) SeatClaimedTx(ctx context.Context, tx *sqlx.Tx, seatID uint64) (bool, error) {
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM order_items WHERE active_seat_id = ?`+r.forUpdate, seatID); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListExpiredPendingIDs returns pending orders whose payment deadline is
// at or before now, oldest deadline first.
func (r *OrderRepo) ListExpiredPendingIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM orders
		WHERE status = ? AND payment_deadline <= ?
		ORDER BY payment_deadline, id
		LIMIT ?`, model.OrderPendingPayment, now, limit)
	return ids, err
}

// ListByUser returns a buyer's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY id DESC`, userID)
	return orders, err
}
