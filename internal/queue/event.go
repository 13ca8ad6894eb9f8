// Package queue defines message payloads exchanged over the message broker
// together with the RabbitMQ publisher and consumer that carry them.
package queue

// Queue names.  Both queues are durable.
const (
	TicketsIssuedQueue = "tickets.issued"
	OrderReleasedQueue = "order.released"
)

// IssuedTicket is one ticket inside a TicketsIssuedEvent.
type IssuedTicket struct {
	TicketCode   string `json:"ticket_code"`
	SeatCode     string `json:"seat_code"`
	CategoryName string `json:"category_name"`
	PriceCents   int64  `json:"price_cents"`
}

// TicketsIssuedEvent is published after a payment verification commits.
// It carries enough for notification senders to deliver tickets without
// querying the primary database.
type TicketsIssuedEvent struct {
	EventID     string         `json:"event_id"`
	OrderCode   string         `json:"order_code"`
	UserID      uint64         `json:"user_id"`
	SessionID   uint64         `json:"session_id"`
	EventName   string         `json:"event_name"`
	SessionName string         `json:"session_name"`
	Venue       string         `json:"venue"`
	EventDate   string         `json:"event_date"`
	StartTime   string         `json:"start_time"`
	TotalCents  int64          `json:"total_cents"`
	VerifiedBy  uint64         `json:"verified_by"`
	VerifiedAt  string         `json:"verified_at"`
	Tickets     []IssuedTicket `json:"tickets"`
}

// OrderReleasedEvent is published when a pending order gives its seats
// back, either because the sweeper expired it or an admin cancelled it.
type OrderReleasedEvent struct {
	EventID    string `json:"event_id"`
	OrderCode  string `json:"order_code"`
	UserID     uint64 `json:"user_id"`
	SessionID  uint64 `json:"session_id"`
	Status     string `json:"status"`
	SeatsFreed int    `json:"seats_freed"`
	ReleasedAt string `json:"released_at"`
}
