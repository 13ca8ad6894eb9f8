package service_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/service"
	"github.com/iliyamo/event-seat-ticketing/internal/testutil"
)

func TestLock_HoldsAllSeatsWithOneExpiry(t *testing.T) {
	e := newEngine(t)
	ids := e.ids(t, "V2", "V1", "V2")

	res, err := e.Locks.Lock(ctx, e.f.Session.ID, ids, buyerA)
	require.NoError(t, err)
	assert.Equal(t, e.ids(t, "V1", "V2"), res.SeatIDs)
	assert.Equal(t, testutil.Epoch.Add(holdTTL), res.ExpiresAt)

	for _, id := range res.SeatIDs {
		s := e.f.Seat(t, id)
		assert.Equal(t, model.SeatLocked, s.Status)
		require.NotNil(t, s.LockedBy)
		assert.Equal(t, buyerA, *s.LockedBy)
		require.NotNil(t, s.LockedUntil)
		assert.WithinDuration(t, res.ExpiresAt, *s.LockedUntil, time.Millisecond)
	}
}

func TestLock_AllOrNothing(t *testing.T) {
	e := newEngine(t)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V2"), buyerA)
	require.NoError(t, err)

	_, err = e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1", "V2", "V3"), buyerB)
	var seatErr *service.SeatUnavailableError
	require.ErrorAs(t, err, &seatErr)
	assert.Equal(t, "V2", seatErr.SeatCode)
	assert.ErrorIs(t, err, service.ErrSeatUnavailable)

	assert.Equal(t, model.SeatAvailable, e.f.Seat(t, e.f.SeatID(t, "V1")).Status)
	assert.Equal(t, model.SeatAvailable, e.f.Seat(t, e.f.SeatID(t, "V3")).Status)
}

func TestLock_ConcurrentBuyersOneWinner(t *testing.T) {
	e := newEngine(t)
	seat := e.ids(t, "R1", "R2")

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []uint64
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(holder uint64) {
			defer wg.Done()
			_, err := e.Locks.Lock(ctx, e.f.Session.ID, seat, holder)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, holder)
			case errors.Is(err, service.ErrSeatUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(1000 + i))
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, n-1, conflicts)
	for _, id := range seat {
		s := e.f.Seat(t, id)
		require.NotNil(t, s.LockedBy)
		assert.Equal(t, winners[0], *s.LockedBy)
	}
}

func TestLock_LapsedLockCanBeTaken(t *testing.T) {
	e := newEngine(t)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	require.NoError(t, err)

	e.f.Clock.Advance(holdTTL)
	_, err = e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerB)
	require.NoError(t, err)
	assert.Equal(t, buyerB, *e.f.Seat(t, e.f.SeatID(t, "V1")).LockedBy)
}

func TestLock_OwnUnexpiredSeatIsUnavailable(t *testing.T) {
	e := newEngine(t)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	require.NoError(t, err)

	_, err = e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	assert.ErrorIs(t, err, service.ErrSeatUnavailable)
}

func TestLock_UnsweptOrderStillClaimsSeat(t *testing.T) {
	e := newEngine(t)
	e.checkout(t, buyerA, "V1")
	e.f.Clock.Advance(holdTTL + time.Minute)

	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerB)
	assert.ErrorIs(t, err, service.ErrSeatUnavailable)
}

func TestLock_Rejections(t *testing.T) {
	e := newEngine(t)

	_, err := e.Locks.Lock(ctx, e.f.Session.ID, nil, buyerA)
	assert.ErrorIs(t, err, service.ErrNoSeats)

	_, err = e.Locks.Lock(ctx, 9999, e.ids(t, "V1"), buyerA)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	_, err = e.Locks.Lock(ctx, e.f.Session.ID, []uint64{9999}, buyerA)
	assert.ErrorIs(t, err, service.ErrSeatNotFound)

	require.NoError(t, e.f.Store.Catalog.SetSessionStatus(ctx, e.f.Session.ID, model.SessionEnded, testutil.Epoch))
	_, err = e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	assert.ErrorIs(t, err, service.ErrSessionClosed)
}

func TestUnlock_OnlyReleasesOwnLiveLocks(t *testing.T) {
	e := newEngine(t)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1", "V2"), buyerA)
	require.NoError(t, err)

	n, err := e.Locks.Unlock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerB)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = e.Locks.Unlock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v1 := e.f.Seat(t, e.f.SeatID(t, "V1"))
	assert.Equal(t, model.SeatAvailable, v1.Status)
	assert.Nil(t, v1.LockedBy)
	assert.Nil(t, v1.LockedUntil)
	assert.Equal(t, model.SeatLocked, e.f.Seat(t, e.f.SeatID(t, "V2")).Status)
}

func TestUnlock_KeepsSeatsOfPendingOrder(t *testing.T) {
	e := newEngine(t)
	e.checkout(t, buyerA, "V1")

	n, err := e.Locks.Unlock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.SeatLocked, e.f.Seat(t, e.f.SeatID(t, "V1")).Status)
}

func TestSeatMap_ShowsLapsedLocksAsAvailable(t *testing.T) {
	e := newEngine(t)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	require.NoError(t, err)

	m, err := e.Inventory.SeatMap(ctx, e.f.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, m.Total)
	assert.Equal(t, 7, m.Available)
	require.Len(t, m.Rows, 2)
	assert.Equal(t, "V", m.Rows[0].Label)
	assert.Equal(t, model.SeatLocked, m.Rows[0].Seats[0].Status)

	e.f.Clock.Advance(holdTTL)
	m, err = e.Inventory.SeatMap(ctx, e.f.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, m.Available)
	assert.Equal(t, model.SeatAvailable, m.Rows[0].Seats[0].Status)
	assert.Nil(t, m.Rows[0].Seats[0].LockedUntil)

	// Reading never rewrites storage.
	assert.Equal(t, model.SeatLocked, e.f.Seat(t, e.f.SeatID(t, "V1")).Status)
}

func TestSeatMap_ClosedSession(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.f.Store.Catalog.SetSessionStatus(ctx, e.f.Session.ID, model.SessionUpcoming, testutil.Epoch))

	_, err := e.Inventory.SeatMap(ctx, e.f.Session.ID)
	assert.ErrorIs(t, err, service.ErrSessionClosed)

	_, err = e.Inventory.SeatMap(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}
