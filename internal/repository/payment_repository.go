package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

const paymentColumns = `id, order_id, payment_method, bank_name, account_number, account_name, transfer_proof,
	transferred_at, gateway_transaction_id, gateway_payment_type, status, amount_paid_cents, verified_at,
	created_at, updated_at`

// PaymentRepo provides access to order_payments.  There is exactly one
// payment row per order.
type PaymentRepo struct {
	db *sqlx.DB
}

// NewPaymentRepo constructs a PaymentRepo with the given DB handle.
func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a pending payment for an order.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, p *model.OrderPayment) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO order_payments (order_id, payment_method, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.OrderID, p.PaymentMethod, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByOrder returns the payment row of an order.
func (r *PaymentRepo) GetByOrder(ctx context.Context, q sqlx.QueryerContext, orderID uint64) (model.OrderPayment, error) {
	var p model.OrderPayment
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+paymentColumns+` FROM order_payments WHERE order_id = ?`, orderID)
	return p, noRows(err, ErrPaymentNotFound)
}

// TransferProof is the manual bank-transfer evidence a buyer submits.
type TransferProof struct {
	BankName      string
	AccountNumber string
	AccountName   string
	ProofRef      string
	TransferredAt time.Time
}

// SaveTransferProofTx attaches transfer evidence to a pending payment.
func (r *PaymentRepo) SaveTransferProofTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, p TransferProof, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE order_payments
		SET bank_name = ?, account_number = ?, account_name = ?, transfer_proof = ?, transferred_at = ?, updated_at = ?
		WHERE order_id = ? AND status = ?`,
		p.BankName, p.AccountNumber, p.AccountName, p.ProofRef, p.TransferredAt, now, orderID, model.PaymentPending)
	return expectOne(res, err)
}

// MarkVerifiedTx marks a pending payment verified for the given amount.
func (r *PaymentRepo) MarkVerifiedTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, amountCents int64, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE order_payments SET status = ?, amount_paid_cents = ?, verified_at = ?, updated_at = ?
		WHERE order_id = ? AND status = ?`,
		model.PaymentVerified, amountCents, now, now, orderID, model.PaymentPending)
	return expectOne(res, err)
}

// MarkRejectedTx rejects the payment of an order if it is still pending.
// A missing or already settled payment is not an error.
func (r *PaymentRepo) MarkRejectedTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE order_payments SET status = ?, updated_at = ? WHERE order_id = ? AND status = ?`,
		model.PaymentRejected, now, orderID, model.PaymentPending)
	return err
}
