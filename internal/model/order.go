package model

import "time"

// OrderStatus is the lifecycle state of an order.  pending_payment is the
// only state from which paid, expired or cancelled can be reached;
// refunded can only follow paid.
type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderPaid           OrderStatus = "paid"
	OrderExpired        OrderStatus = "expired"
	OrderCancelled      OrderStatus = "cancelled"
	OrderRefunded       OrderStatus = "refunded"
)

// PaymentStatus is the verification state of an order payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// PaymentMethod values accepted at checkout.
const (
	PaymentBankTransfer = "bank_transfer"
	PaymentMidtrans     = "midtrans"
	PaymentXendit       = "xendit"
	PaymentCash         = "cash"
	PaymentOther        = "other"
)

// Order is the checkout header.  TotalCents is always SubtotalCents plus
// ServiceFeeCents and PaymentDeadline is fixed at creation to the earliest
// hold expiry among the order's seats.
//
// Fields:
//
//	ID              – primary key identifier.
//	UserID          – buyer who holds the seats.
//	SessionID       – session the seats belong to.
//	OrderCode       – public order reference (TKT-YYYY-XXXXXXXX).
//	SubtotalCents   – sum of item price snapshots.
//	ServiceFeeCents – flat fee per order.
//	TotalCents      – subtotal plus fee.
//	Status          – lifecycle state.
//	PaymentDeadline – the order expires when this passes unpaid.
//	PaidAt          – set on verification.
//	VerifiedBy      – finance user that verified the payment.
type Order struct {
	ID              uint64      `db:"id" json:"id"`
	UserID          uint64      `db:"user_id" json:"user_id"`
	SessionID       uint64      `db:"session_id" json:"session_id"`
	OrderCode       string      `db:"order_code" json:"order_code"`
	SubtotalCents   int64       `db:"subtotal_cents" json:"subtotal_cents"`
	ServiceFeeCents int64       `db:"service_fee_cents" json:"service_fee_cents"`
	TotalCents      int64       `db:"total_cents" json:"total_cents"`
	Status          OrderStatus `db:"status" json:"status"`
	PaymentDeadline time.Time   `db:"payment_deadline" json:"payment_deadline"`
	PaidAt          *time.Time  `db:"paid_at" json:"paid_at,omitempty"`
	VerifiedBy      *uint64     `db:"verified_by" json:"verified_by,omitempty"`
	Notes           *string     `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`

	Items   []OrderItem   `db:"-" json:"items,omitempty"`
	Payment *OrderPayment `db:"-" json:"payment,omitempty"`
}

// OrderItem is one purchased seat.  The snapshot fields are copied at
// checkout and never recomputed from the catalog.  ActiveSeatID mirrors
// SeatID while the order can still turn into a sale and is cleared when
// the order expires or is cancelled; a unique index on it keeps a seat
// in at most one live order.
type OrderItem struct {
	ID                   uint64    `db:"id" json:"id"`
	OrderID              uint64    `db:"order_id" json:"order_id"`
	SeatID               uint64    `db:"seat_id" json:"seat_id"`
	ActiveSeatID         *uint64   `db:"active_seat_id" json:"-"`
	CategoryID           uint64    `db:"category_id" json:"category_id"`
	CategoryNameSnapshot string    `db:"category_name_snapshot" json:"category_name"`
	PriceSnapshotCents   int64     `db:"price_snapshot_cents" json:"price_cents"`
	SeatCodeSnapshot     string    `db:"seat_code_snapshot" json:"seat_code"`
	CreatedAt            time.Time `db:"created_at" json:"-"`
}

// OrderPayment is one-to-one with Order.  Manual transfer evidence and
// gateway correlation fields are optional.
type OrderPayment struct {
	ID                   uint64        `db:"id" json:"id"`
	OrderID              uint64        `db:"order_id" json:"order_id"`
	PaymentMethod        string        `db:"payment_method" json:"payment_method"`
	BankName             *string       `db:"bank_name" json:"bank_name,omitempty"`
	AccountNumber        *string       `db:"account_number" json:"account_number,omitempty"`
	AccountName          *string       `db:"account_name" json:"account_name,omitempty"`
	TransferProof        *string       `db:"transfer_proof" json:"transfer_proof,omitempty"`
	TransferredAt        *time.Time    `db:"transferred_at" json:"transferred_at,omitempty"`
	GatewayTransactionID *string       `db:"gateway_transaction_id" json:"gateway_transaction_id,omitempty"`
	GatewayPaymentType   *string       `db:"gateway_payment_type" json:"gateway_payment_type,omitempty"`
	Status               PaymentStatus `db:"status" json:"status"`
	AmountPaidCents      *int64        `db:"amount_paid_cents" json:"amount_paid_cents,omitempty"`
	VerifiedAt           *time.Time    `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt            time.Time     `db:"created_at" json:"-"`
	UpdatedAt            time.Time     `db:"updated_at" json:"-"`
}
