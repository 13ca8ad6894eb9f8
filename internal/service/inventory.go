package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

// Inventory serves read-only views of seat state.
type Inventory struct{ *base }

// SeatView is one seat as displayed on the seat map.  Status has lazy
// availability applied: a lapsed lock shows as available.
type SeatView struct {
	ID          uint64           `json:"id"`
	SeatCode    string           `json:"seat_code"`
	SeatNumber  *uint32          `json:"seat_number,omitempty"`
	CategoryID  uint64           `json:"category_id"`
	Status      model.SeatStatus `json:"status"`
	LockedUntil *time.Time       `json:"locked_until,omitempty"`
}

// SeatRow groups the seats of one row label.
type SeatRow struct {
	Label string     `json:"row_label"`
	Seats []SeatView `json:"seats"`
}

// SeatMap is the display view of a session's inventory.
type SeatMap struct {
	SessionID  uint64                 `json:"session_id"`
	Rows       []SeatRow              `json:"rows"`
	Categories []model.TicketCategory `json:"categories"`
	Available  int                    `json:"available"`
	Total      int                    `json:"total"`
}

// SeatMap returns the seats of an open session grouped by row.  It writes
// nothing: expired locks are shown as available but stay locked in
// storage until a lock attempt or the sweeper reclaims them.
func (i *Inventory) SeatMap(ctx context.Context, sessionID uint64) (*SeatMap, error) {
	session, err := i.store.Catalog.GetSession(ctx, i.store.DB, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionOpen {
		return nil, ErrSessionClosed
	}
	seats, err := i.store.Seats.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cats, err := i.store.Catalog.ListActiveCategories(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := i.now()
	m := &SeatMap{SessionID: sessionID, Categories: cats, Total: len(seats)}
	rowIndex := map[string]int{}
	for _, s := range seats {
		label := ""
		if s.RowLabel != nil {
			label = *s.RowLabel
		}
		idx, ok := rowIndex[label]
		if !ok {
			idx = len(m.Rows)
			rowIndex[label] = idx
			m.Rows = append(m.Rows, SeatRow{Label: label})
		}
		v := SeatView{
			ID:         s.ID,
			SeatCode:   s.SeatCode,
			SeatNumber: s.SeatNumber,
			CategoryID: s.CategoryID,
			Status:     s.DisplayStatus(now),
		}
		if v.Status == model.SeatLocked {
			v.LockedUntil = s.LockedUntil
		}
		if v.Status == model.SeatAvailable {
			m.Available++
		}
		m.Rows[idx].Seats = append(m.Rows[idx].Seats, v)
	}
	return m, nil
}

// Categories lists the purchasable categories of a session.
func (i *Inventory) Categories(ctx context.Context, sessionID uint64) ([]model.TicketCategory, error) {
	if _, err := i.store.Catalog.GetSession(ctx, i.store.DB, sessionID); err != nil {
		return nil, err
	}
	return i.store.Catalog.ListActiveCategories(ctx, sessionID)
}
