package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/metrics"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/repository"
)

const (
	maxScannedCodeLen = 80
	maxDeviceInfoLen  = 255
)

// Admission redeems tickets at the gate.
type Admission struct{ *base }

// AdmitInput is one scan at the gate.
type AdmitInput struct {
	TicketCode string
	OfficerID  uint64
	DeviceInfo string
}

// AdmitResult is the outcome of a scan.  Ticket is nil for invalid codes.
// For already_used, UsedAt and ScannedBy describe the first admission.
type AdmitResult struct {
	Result    model.ScanResult `json:"result"`
	Ticket    *model.Ticket    `json:"ticket,omitempty"`
	UsedAt    *time.Time       `json:"used_at,omitempty"`
	ScannedBy *uint64          `json:"scanned_by,omitempty"`
}

// Admit redeems a ticket code.  Exactly one of any number of concurrent
// scans of the same issued ticket gets success.  Every scan, whatever its
// result, leaves one scan_logs row written in the same transaction as the
// ticket update.  A returned error means nothing was recorded.
func (a *Admission) Admit(ctx context.Context, in AdmitInput) (*AdmitResult, error) {
	now := a.now()
	log := logrus.WithFields(logrus.Fields{"officer_id": in.OfficerID, "device": in.DeviceInfo})

	var res AdmitResult
	err := database.WithTx(ctx, a.store.DB, func(tx *sqlx.Tx) error {
		res = AdmitResult{}
		var ticket *model.Ticket
		if a.codes.Valid(in.TicketCode) {
			t, err := a.store.Tickets.LockByCodeTx(ctx, tx, in.TicketCode)
			switch {
			case errors.Is(err, repository.ErrTicketNotFound):
			case err != nil:
				return err
			default:
				ticket = &t
			}
		}

		var notes string
		switch {
		case ticket == nil:
			res.Result = model.ScanInvalidCode
		case ticket.Status == model.TicketIssued:
			err := a.store.Tickets.MarkUsedTx(ctx, tx, ticket.ID, in.OfficerID, now)
			if err != nil && !errors.Is(err, repository.ErrConflict) {
				return err
			}
			if err == nil {
				ticket.Status = model.TicketUsed
				ticket.UsedAt = &now
				ticket.ScannedBy = &in.OfficerID
				res.Result = model.ScanSuccess
				break
			}
			t, err := a.store.Tickets.LockByCodeTx(ctx, tx, in.TicketCode)
			if err != nil {
				return err
			}
			ticket = &t
			res.Result, notes = resultForRedeemed(t)
		default:
			res.Result, notes = resultForRedeemed(*ticket)
		}

		res.Ticket = ticket
		if res.Result == model.ScanAlreadyUsed {
			res.UsedAt, res.ScannedBy = ticket.UsedAt, ticket.ScannedBy
		}

		entry := model.ScanLog{
			TicketCodeScanned: truncate(in.TicketCode, maxScannedCodeLen),
			ScannedBy:         in.OfficerID,
			Result:            res.Result,
			Notes:             optional(notes),
			DeviceInfo:        optional(truncate(in.DeviceInfo, maxDeviceInfoLen)),
			CreatedAt:         now,
		}
		if ticket != nil {
			entry.TicketID = &ticket.ID
		}
		return a.store.ScanLogs.AppendTx(ctx, tx, &entry)
	})
	if err != nil {
		log.WithError(err).Error("admission failed")
		return nil, err
	}

	metrics.Admissions.WithLabelValues(string(res.Result)).Inc()
	switch res.Result {
	case model.ScanSuccess:
		log.WithField("ticket_id", res.Ticket.ID).Info("ticket admitted")
	case model.ScanInvalidCode:
		log.WithField("code", truncate(in.TicketCode, maxScannedCodeLen)).Warn("invalid ticket code scanned")
	default:
		log.WithFields(logrus.Fields{"ticket_id": res.Ticket.ID, "result": res.Result}).Info("ticket refused")
	}
	return &res, nil
}

// ScanHistory returns every scan recorded for a code, oldest first.
func (a *Admission) ScanHistory(ctx context.Context, code string) ([]model.ScanLog, error) {
	return a.store.ScanLogs.ListByCode(ctx, code)
}

func resultForRedeemed(t model.Ticket) (model.ScanResult, string) {
	if t.Status == model.TicketVoided {
		return model.ScanVoided, "ticket voided"
	}
	return model.ScanAlreadyUsed, "ticket already used"
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
