package model

import "time"

// SessionStatus tracks where a session is in its sales lifecycle.  Seats
// can only be locked while the session is open.
type SessionStatus string

const (
	SessionUpcoming SessionStatus = "upcoming"
	SessionOpen     SessionStatus = "open"
	SessionSoldOut  SessionStatus = "sold_out"
	SessionOngoing  SessionStatus = "ongoing"
	SessionEnded    SessionStatus = "ended"
)

// Event is the catalog entry a session belongs to.  The catalog is
// maintained outside this service; it is only read here.
type Event struct {
	ID        uint64    `db:"id" json:"id"`                 // events.id
	Name      string    `db:"name" json:"name"`             // events.name
	Slug      string    `db:"slug" json:"slug"`             // events.slug
	Venue     string    `db:"venue" json:"venue"`           // events.venue
	Status    string    `db:"status" json:"status"`         // events.status
	CreatedAt time.Time `db:"created_at" json:"created_at"` // events.created_at
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // events.updated_at
}

// EventSession is one scheduled performance of an event.
type EventSession struct {
	ID        uint64        `db:"id" json:"id"`                 // event_sessions.id
	EventID   uint64        `db:"event_id" json:"event_id"`     // event_sessions.event_id
	Name      string        `db:"name" json:"name"`             // event_sessions.name
	EventDate time.Time     `db:"event_date" json:"event_date"` // event_sessions.event_date
	StartTime string        `db:"start_time" json:"start_time"` // event_sessions.start_time (HH:MM)
	EndTime   *string       `db:"end_time" json:"end_time"`     // event_sessions.end_time
	Status    SessionStatus `db:"status" json:"status"`         // event_sessions.status
	CreatedAt time.Time     `db:"created_at" json:"-"`
	UpdatedAt time.Time     `db:"updated_at" json:"-"`
}

// SessionDetail joins a session with its event so that tickets can
// snapshot the full display block in one read.
type SessionDetail struct {
	EventSession
	EventName string `db:"event_name" json:"event_name"`
	Venue     string `db:"venue" json:"venue"`
}

// TicketCategory is the pricing bucket for a group of seats.  Prices may
// change at any time; orders and tickets keep their own snapshots.
type TicketCategory struct {
	ID         uint64    `db:"id" json:"id"`                   // ticket_categories.id
	SessionID  uint64    `db:"session_id" json:"session_id"`   // ticket_categories.session_id
	Name       string    `db:"name" json:"name"`               // ticket_categories.name
	ColorHex   string    `db:"color_hex" json:"color_hex"`     // ticket_categories.color_hex
	PriceCents int64     `db:"price_cents" json:"price_cents"` // ticket_categories.price_cents
	IsActive   bool      `db:"is_active" json:"is_active"`     // ticket_categories.is_active
	CreatedAt  time.Time `db:"created_at" json:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"-"`
}
