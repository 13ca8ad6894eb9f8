package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

const (
	sessionColumns  = `id, event_id, name, event_date, start_time, end_time, status, created_at, updated_at`
	categoryColumns = `id, session_id, name, color_hex, price_cents, is_active, created_at, updated_at`
)

// CatalogRepo reads events, sessions and ticket categories.  The catalog
// is administered elsewhere; the create and price-update methods exist
// for seeding and for simulating admin edits.
type CatalogRepo struct {
	db *sqlx.DB
}

// NewCatalogRepo constructs a CatalogRepo with the given DB handle.
func NewCatalogRepo(db *sqlx.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// CreateEvent inserts an event and populates its ID.
func (r *CatalogRepo) CreateEvent(ctx context.Context, e *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (name, slug, venue, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Name, e.Slug, e.Venue, e.Status, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// CreateSession inserts a session and populates its ID.
func (r *CatalogRepo) CreateSession(ctx context.Context, s *model.EventSession) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO event_sessions (event_id, name, event_date, start_time, end_time, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.EventID, s.Name, s.EventDate, s.StartTime, s.EndTime, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// CreateCategory inserts a ticket category and populates its ID.
func (r *CatalogRepo) CreateCategory(ctx context.Context, c *model.TicketCategory) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ticket_categories (session_id, name, color_hex, price_cents, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.SessionID, c.Name, c.ColorHex, c.PriceCents, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetSession returns a session by ID.  q may be the DB or a transaction.
func (r *CatalogRepo) GetSession(ctx context.Context, q sqlx.QueryerContext, id uint64) (model.EventSession, error) {
	var s model.EventSession
	err := sqlx.GetContext(ctx, q, &s, `SELECT `+sessionColumns+` FROM event_sessions WHERE id = ?`, id)
	return s, noRows(err, ErrSessionNotFound)
}

// GetSessionDetail returns a session joined with its event.
func (r *CatalogRepo) GetSessionDetail(ctx context.Context, q sqlx.QueryerContext, id uint64) (model.SessionDetail, error) {
	var d model.SessionDetail
	err := sqlx.GetContext(ctx, q, &d, `
		SELECT s.id, s.event_id, s.name, s.event_date, s.start_time, s.end_time, s.status,
		       s.created_at, s.updated_at, e.name AS event_name, e.venue
		FROM event_sessions s
		JOIN events e ON e.id = s.event_id
		WHERE s.id = ?`, id)
	return d, noRows(err, ErrSessionNotFound)
}

// ListActiveCategories returns the purchasable categories of a session.
func (r *CatalogRepo) ListActiveCategories(ctx context.Context, sessionID uint64) ([]model.TicketCategory, error) {
	cats := []model.TicketCategory{}
	err := r.db.SelectContext(ctx, &cats,
		`SELECT `+categoryColumns+` FROM ticket_categories WHERE session_id = ? AND is_active = 1 ORDER BY price_cents DESC, id`,
		sessionID)
	return cats, err
}

// CategoriesByID loads the given categories keyed by ID.  Missing IDs are
// reported as ErrCategoryNotFound.
func (r *CatalogRepo) CategoriesByID(ctx context.Context, q sqlx.QueryerContext, ids []uint64) (map[uint64]model.TicketCategory, error) {
	out := make(map[uint64]model.TicketCategory, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+categoryColumns+` FROM ticket_categories WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var cats []model.TicketCategory
	if err := sqlx.SelectContext(ctx, q, &cats, query, args...); err != nil {
		return nil, err
	}
	for _, c := range cats {
		out[c.ID] = c
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, ErrCategoryNotFound
		}
	}
	return out, nil
}

// UpdatePrice changes a category's current price.  Existing order items
// and tickets are unaffected.
func (r *CatalogRepo) UpdatePrice(ctx context.Context, categoryID uint64, priceCents int64, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ticket_categories SET price_cents = ?, updated_at = ? WHERE id = ?`, priceCents, now, categoryID)
	if err := expectOne(res, err); err != nil {
		if err == ErrConflict {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// SetSessionStatus updates a session's sales status.
func (r *CatalogRepo) SetSessionStatus(ctx context.Context, sessionID uint64, status model.SessionStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE event_sessions SET status = ?, updated_at = ? WHERE id = ?`, status, now, sessionID)
	if err := expectOne(res, err); err != nil {
		if err == ErrConflict {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}
