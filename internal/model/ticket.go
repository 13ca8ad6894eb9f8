package model

import "time"

// TicketStatus only moves forward: issued -> used or issued -> voided.
type TicketStatus string

const (
	TicketIssued TicketStatus = "issued"
	TicketUsed   TicketStatus = "used"
	TicketVoided TicketStatus = "voided"
)

// Ticket is the admission credential issued for one order item when the
// order's payment is verified.  Everything a gate officer or buyer needs
// to read is snapshotted so later catalog edits do not affect it.
type Ticket struct {
	ID                     uint64       `db:"id" json:"id"`
	OrderID                uint64       `db:"order_id" json:"order_id"`
	OrderItemID            uint64       `db:"order_item_id" json:"order_item_id"`
	UserID                 uint64       `db:"user_id" json:"user_id"`
	TicketCode             string       `db:"ticket_code" json:"ticket_code"`
	EventNameSnapshot      string       `db:"event_name_snapshot" json:"event_name"`
	SessionNameSnapshot    string       `db:"session_name_snapshot" json:"session_name"`
	EventDateSnapshot      time.Time    `db:"event_date_snapshot" json:"event_date"`
	StartTimeSnapshot      string       `db:"start_time_snapshot" json:"start_time"`
	VenueSnapshot          string       `db:"venue_snapshot" json:"venue"`
	SeatCodeSnapshot       string       `db:"seat_code_snapshot" json:"seat_code"`
	CategoryNameSnapshot   string       `db:"category_name_snapshot" json:"category_name"`
	PricePaidSnapshotCents int64        `db:"price_paid_snapshot_cents" json:"price_paid_cents"`
	Status                 TicketStatus `db:"status" json:"status"`
	UsedAt                 *time.Time   `db:"used_at" json:"used_at,omitempty"`
	ScannedBy              *uint64      `db:"scanned_by" json:"scanned_by,omitempty"`
	CreatedAt              time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time    `db:"updated_at" json:"-"`
}

// ScanResult is the outcome of one admission attempt.
type ScanResult string

const (
	ScanSuccess     ScanResult = "success"
	ScanAlreadyUsed ScanResult = "already_used"
	ScanInvalidCode ScanResult = "invalid_code"
	ScanVoided      ScanResult = "voided"
)

// ScanLog is an append-only audit row written for every admission
// attempt.  TicketID is nil when the scanned code did not resolve.
type ScanLog struct {
	ID                uint64     `db:"id" json:"id"`
	TicketCodeScanned string     `db:"ticket_code_scanned" json:"ticket_code"`
	TicketID          *uint64    `db:"ticket_id" json:"ticket_id,omitempty"`
	ScannedBy         uint64     `db:"scanned_by" json:"scanned_by"`
	Result            ScanResult `db:"result" json:"result"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	DeviceInfo        *string    `db:"device_info" json:"device_info,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
