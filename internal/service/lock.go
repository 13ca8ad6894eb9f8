package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-ticketing/internal/database"
	"github.com/iliyamo/event-seat-ticketing/internal/metrics"
	"github.com/iliyamo/event-seat-ticketing/internal/model"
)

// LockManager grants and releases time-bounded holds on seats.
type LockManager struct{ *base }

// LockResult describes a granted batch lock.  All seats share one expiry.
type LockResult struct {
	SessionID uint64    `json:"session_id"`
	SeatIDs   []uint64  `json:"seat_ids"`
	HolderID  uint64    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lock holds every requested seat for holderID or none of them.  Seats are
// row-locked in ascending ID order and re-checked under the lock; the first
// seat that is not available fails the whole batch with a
// *SeatUnavailableError.  A seat whose hold lapsed while its pending order
// has not been swept yet still counts as taken.
func (m *LockManager) Lock(ctx context.Context, sessionID uint64, seatIDs []uint64, holderID uint64) (*LockResult, error) {
	ids := canonicalSeatIDs(seatIDs)
	if len(ids) == 0 {
		return nil, ErrNoSeats
	}
	now := m.now()
	expiresAt := now.Add(m.cfg.HoldTTL)
	log := logrus.WithFields(logrus.Fields{"session_id": sessionID, "seat_ids": ids, "holder_id": holderID})

	err := database.WithTx(ctx, m.store.DB, func(tx *sqlx.Tx) error {
		session, err := m.store.Catalog.GetSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != model.SessionOpen {
			return ErrSessionClosed
		}
		for _, id := range ids {
			seat, err := m.lockSeatInSession(ctx, tx, sessionID, id)
			if err != nil {
				return err
			}
			if !seat.IsAvailable(now) {
				return &SeatUnavailableError{SeatID: seat.ID, SeatCode: seat.SeatCode}
			}
			claimed, err := m.store.Orders.SeatClaimedTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if claimed {
				return &SeatUnavailableError{SeatID: seat.ID, SeatCode: seat.SeatCode}
			}
		}
		return m.store.Seats.MarkLockedTx(ctx, tx, ids, holderID, expiresAt, now)
	})
	if err != nil {
		if errors.Is(err, ErrSeatUnavailable) {
			metrics.SeatLockConflicts.Inc()
		}
		logFailure(log, "seat lock rejected", err)
		return nil, err
	}
	log.WithField("expires_at", expiresAt).Debug("seats locked")
	return &LockResult{SessionID: sessionID, SeatIDs: ids, HolderID: holderID, ExpiresAt: expiresAt}, nil
}

// Unlock releases the seats holderID currently holds and returns how many
// were released.  Seats held by someone else, already expired, or part of
// a pending order are left as they are.
func (m *LockManager) Unlock(ctx context.Context, sessionID uint64, seatIDs []uint64, holderID uint64) (int, error) {
	ids := canonicalSeatIDs(seatIDs)
	if len(ids) == 0 {
		return 0, ErrNoSeats
	}
	now := m.now()
	var released []uint64

	err := database.WithTx(ctx, m.store.DB, func(tx *sqlx.Tx) error {
		released = released[:0]
		for _, id := range ids {
			seat, err := m.lockSeatInSession(ctx, tx, sessionID, id)
			if err != nil {
				return err
			}
			if !seat.IsLockedBy(holderID, now) {
				continue
			}
			claimed, err := m.store.Orders.SeatClaimedTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if claimed {
				continue
			}
			released = append(released, id)
		}
		return m.store.Seats.ReleaseTx(ctx, tx, released, now)
	})
	if err != nil {
		logFailure(logrus.WithFields(logrus.Fields{"session_id": sessionID, "seat_ids": ids}), "seat unlock failed", err)
		return 0, err
	}
	return len(released), nil
}
