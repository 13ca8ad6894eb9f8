package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

// ScanLogRepo appends and reads admission audit rows.  There is no update
// or delete method.
type ScanLogRepo struct {
	db *sqlx.DB
}

// NewScanLogRepo constructs a ScanLogRepo with the given DB handle.
func NewScanLogRepo(db *sqlx.DB) *ScanLogRepo { return &ScanLogRepo{db: db} }

// AppendTx writes one audit row.
func (r *ScanLogRepo) AppendTx(ctx context.Context, tx *sqlx.Tx, l *model.ScanLog) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO scan_logs (ticket_code_scanned, ticket_id, scanned_by, result, notes, device_info, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.TicketCodeScanned, l.TicketID, l.ScannedBy, l.Result, l.Notes, l.DeviceInfo, l.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// ListByCode returns every scan of a code, oldest first.
func (r *ScanLogRepo) ListByCode(ctx context.Context, code string) ([]model.ScanLog, error) {
	logs := []model.ScanLog{}
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, ticket_code_scanned, ticket_id, scanned_by, result, notes, device_info, created_at
		FROM scan_logs WHERE ticket_code_scanned = ? ORDER BY id`, code)
	return logs, err
}
