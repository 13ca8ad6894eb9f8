package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

const ticketColumns = `id, order_id, order_item_id, user_id, ticket_code, event_name_snapshot, session_name_snapshot,
	event_date_snapshot, start_time_snapshot, venue_snapshot, seat_code_snapshot, category_name_snapshot,
	price_paid_snapshot_cents, status, used_at, scanned_by, created_at, updated_at`

// TicketRepo provides access to tickets.  Ticket status only moves
// forward, so every status write is a compare-and-set on issued.
type TicketRepo struct {
	db        *sqlx.DB
	forUpdate string
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sqlx.DB) *TicketRepo {
	return &TicketRepo{db: db, forUpdate: database.ForUpdate(db.DriverName())}
}

// CreateTx inserts an issued ticket and populates its ID.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, t *model.Ticket) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO tickets (order_id, order_item_id, user_id, ticket_code, event_name_snapshot, session_name_snapshot,
		                     event_date_snapshot, start_time_snapshot, venue_snapshot, seat_code_snapshot,
		                     category_name_snapshot, price_paid_snapshot_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OrderID, t.OrderItemID, t.UserID, t.TicketCode, t.EventNameSnapshot, t.SessionNameSnapshot,
		t.EventDateSnapshot, t.StartTimeSnapshot, t.VenueSnapshot, t.SeatCodeSnapshot,
		t.CategoryNameSnapshot, t.PricePaidSnapshotCents, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByCode returns a ticket by its admission code.
func (r *TicketRepo) GetByCode(ctx context.Context, q sqlx.QueryerContext, code string) (model.Ticket, error) {
	var t model.Ticket
	err := sqlx.GetContext(ctx, q, &t, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_code = ?`, code)
	return t, noRows(err, ErrTicketNotFound)
}

// LockByCodeTx reads a ticket with a row lock so that concurrent scans of
// the same code observe each other's writes.
func (r *TicketRepo) LockByCodeTx(ctx context.Context, tx *sqlx.Tx, code string) (model.Ticket, error) {
	var t model.Ticket
	err := tx.GetContext(ctx, &t, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_code = ?`+r.forUpdate, code)
	return t, noRows(err, ErrTicketNotFound)
}

// ListByOrder returns the tickets of an order in item order.
func (r *TicketRepo) ListByOrder(ctx context.Context, q sqlx.QueryerContext, orderID uint64) ([]model.Ticket, error) {
	tickets := []model.Ticket{}
	err := sqlx.SelectContext(ctx, q, &tickets,
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = ? ORDER BY order_item_id`, orderID)
	return tickets, err
}

// MarkUsedTx redeems an issued ticket.  It returns ErrConflict when the
// ticket was not issued anymore, which is how two simultaneous scans of
// the same code are told apart.
func (r *TicketRepo) MarkUsedTx(ctx context.Context, tx *sqlx.Tx, ticketID, officerID uint64, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE tickets SET status = ?, used_at = ?, scanned_by = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		model.TicketUsed, now, officerID, now, ticketID, model.TicketIssued)
	return expectOne(res, err)
}

// VoidIssuedByOrderTx voids every still-issued ticket of an order and
// returns how many were voided.  Used tickets are left untouched.
func (r *TicketRepo) VoidIssuedByOrderTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ?, updated_at = ? WHERE order_id = ? AND status = ?`,
		model.TicketVoided, now, orderID, model.TicketIssued)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
