// Package testutil provides a migrated SQLite database and a seeded
// catalog for package tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/repository"
)

// Epoch is the fake clock's starting time in every fixture.
var Epoch = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// Prices of the seeded categories, in cents.
const (
	VIPPrice     int64 = 150000
	RegularPrice int64 = 75000
)

// NewDB opens a fresh migrated SQLite database in a temp dir.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ticketing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// Fixture is a seeded open session with two categories.  Seats V1..V4 are
// VIP and R1..R4 regular, in ascending ID order.
type Fixture struct {
	DB      *sqlx.DB
	Store   *repository.Store
	Clock   *clockwork.FakeClock
	Event   model.Event
	Session model.EventSession
	VIP     model.TicketCategory
	Regular model.TicketCategory
	Seats   []model.Seat
}

// Seed creates a database with the standard fixture.
func Seed(t testing.TB) *Fixture {
	t.Helper()
	ctx := context.Background()
	db := NewDB(t)
	f := &Fixture{
		DB:    db,
		Store: repository.NewStore(db),
		Clock: clockwork.NewFakeClockAt(Epoch),
	}
	now := Epoch

	f.Event = model.Event{Name: "Jazz Night", Slug: "jazz-night", Venue: "Blue Hall", Status: "published", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.Store.Catalog.CreateEvent(ctx, &f.Event))

	f.Session = model.EventSession{
		EventID:   f.Event.ID,
		Name:      "Evening",
		EventDate: time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC),
		StartTime: "19:30",
		Status:    model.SessionOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.Store.Catalog.CreateSession(ctx, &f.Session))

	f.VIP = model.TicketCategory{SessionID: f.Session.ID, Name: "VIP", ColorHex: "#f59e0b", PriceCents: VIPPrice, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.Store.Catalog.CreateCategory(ctx, &f.VIP))
	f.Regular = model.TicketCategory{SessionID: f.Session.ID, Name: "Regular", ColorHex: "#6366f1", PriceCents: RegularPrice, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.Store.Catalog.CreateCategory(ctx, &f.Regular))

	var seats []model.Seat
	for _, row := range []struct {
		label string
		cat   uint64
	}{{"V", f.VIP.ID}, {"R", f.Regular.ID}} {
		for n := uint32(1); n <= 4; n++ {
			label, num := row.label, n
			seats = append(seats, model.Seat{
				SessionID:  f.Session.ID,
				CategoryID: row.cat,
				SeatCode:   fmt.Sprintf("%s%d", row.label, n),
				RowLabel:   &label,
				SeatNumber: &num,
			})
		}
	}
	require.NoError(t, f.Store.Seats.CreateBulk(ctx, seats, now))
	f.Seats, _ = f.Store.Seats.ListBySession(ctx, f.Session.ID)
	require.Len(t, f.Seats, 8)
	return f
}

// SeatID returns the ID of the seat with the given code.
func (f *Fixture) SeatID(t testing.TB, code string) uint64 {
	t.Helper()
	for _, s := range f.Seats {
		if s.SeatCode == code {
			return s.ID
		}
	}
	t.Fatalf("no seat %q in fixture", code)
	return 0
}

// Seat reloads a seat from the database.
func (f *Fixture) Seat(t testing.TB, id uint64) model.Seat {
	t.Helper()
	var s model.Seat
	require.NoError(t, f.DB.Get(&s, `SELECT id, session_id, category_id, seat_code, row_label, seat_number,
		status, locked_by, locked_until, created_at, updated_at FROM seats WHERE id = ?`, id))
	return s
}

// Count returns SELECT COUNT(*) for the given query.
func (f *Fixture) Count(t testing.TB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, f.DB.Get(&n, query, args...))
	return n
}
