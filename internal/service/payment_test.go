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
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

// fixedCodes hands out the same ticket code every time, so a second
// ticket in one order violates the unique index.
type fixedCodes struct{}

func (fixedCodes) New() (string, error)  { return "QR-FIXED", nil }
func (fixedCodes) Valid(code string) bool { return code == "QR-FIXED" }

func TestVerify_IssuesTicketsAndBooksSeats(t *testing.T) {
	e := newEngine(t)
	order := e.checkout(t, buyerA, "V1", "R2")
	e.f.Clock.Advance(3 * time.Minute)

	res, err := e.Payments.Verify(ctx, order.OrderCode, finance)
	require.NoError(t, err)

	assert.Equal(t, model.OrderPaid, res.Order.Status)
	require.Len(t, res.Tickets, 2)
	for i, tk := range res.Tickets {
		assert.True(t, e.coder.Valid(tk.TicketCode), tk.TicketCode)
		assert.Equal(t, model.TicketIssued, tk.Status)
		assert.Equal(t, buyerA, tk.UserID)
		assert.Equal(t, "Jazz Night", tk.EventNameSnapshot)
		assert.Equal(t, "Blue Hall", tk.VenueSnapshot)
		assert.Equal(t, "Evening", tk.SessionNameSnapshot)
		assert.Equal(t, "19:30", tk.StartTimeSnapshot)
		assert.Equal(t, order.Items[i].SeatCodeSnapshot, tk.SeatCodeSnapshot)
		assert.Equal(t, order.Items[i].PriceSnapshotCents, tk.PricePaidSnapshotCents)
	}
	assert.NotEqual(t, res.Tickets[0].TicketCode, res.Tickets[1].TicketCode)

	got := e.order(t, order.OrderCode)
	assert.Equal(t, model.OrderPaid, got.Status)
	require.NotNil(t, got.VerifiedBy)
	assert.Equal(t, finance, *got.VerifiedBy)
	require.NotNil(t, got.PaidAt)
	assert.WithinDuration(t, testutil.Epoch.Add(3*time.Minute), *got.PaidAt, time.Millisecond)
	assert.Equal(t, model.PaymentVerified, got.Payment.Status)
	assert.Equal(t, order.TotalCents, *got.Payment.AmountPaidCents)

	for _, it := range got.Items {
		s := e.f.Seat(t, it.SeatID)
		assert.Equal(t, model.SeatBooked, s.Status)
		assert.Nil(t, s.LockedBy)
		assert.Nil(t, s.LockedUntil)
	}

	require.Len(t, e.pub.issued, 1)
	ev := e.pub.issued[0]
	assert.Equal(t, order.OrderCode, ev.OrderCode)
	assert.Equal(t, "2026-04-18", ev.EventDate)
	assert.Len(t, ev.Tickets, 2)
}

func TestVerify_SecondAttemptIsRejected(t *testing.T) {
	e := newEngine(t)
	order, _ := e.paid(t, buyerA, "V1", "V2")

	_, err := e.Payments.Verify(ctx, order.OrderCode, finance)
	var stateErr *service.OrderStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.OrderPaid, stateErr.Status)
	assert.ErrorIs(t, err, service.ErrOrderNotPending)

	assert.Equal(t, 2, e.f.Count(t, `SELECT COUNT(*) FROM tickets`))
}

func TestVerify_ConcurrentVerifiersIssueOnce(t *testing.T) {
	e := newEngine(t)
	order := e.checkout(t, buyerA, "V1", "V2")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Payments.Verify(ctx, order.OrderCode, finance)
			if err != nil && !errors.Is(err, service.ErrOrderNotPending) {
				t.Errorf("unexpected error: %v", err)
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 2, e.f.Count(t, `SELECT COUNT(*) FROM tickets`))
}

func TestVerify_AfterDeadline(t *testing.T) {
	e := newEngine(t)
	order := e.checkout(t, buyerA, "V1")
	e.f.Clock.Advance(holdTTL)

	_, err := e.Payments.Verify(ctx, order.OrderCode, finance)
	assert.ErrorIs(t, err, service.ErrPaymentDeadlinePassed)
	assert.ErrorIs(t, err, service.ErrOrderNotPending)

	assert.Equal(t, model.OrderPendingPayment, e.order(t, order.OrderCode).Status)
	assert.Zero(t, e.f.Count(t, `SELECT COUNT(*) FROM tickets`))
}

func TestVerify_FailureLeavesNothingBehind(t *testing.T) {
	f := testutil.Seed(t)
	svc := service.New(f.Store, f.Clock, fixedCodes{}, service.Config{HoldTTL: holdTTL, ServiceFeeCents: 2500, SweepBatchSize: 10})
	ids := []uint64{f.SeatID(t, "V1"), f.SeatID(t, "V2")}
	_, err := svc.Locks.Lock(ctx, f.Session.ID, ids, buyerA)
	require.NoError(t, err)
	order, err := svc.Orders.Checkout(ctx, service.CheckoutInput{SessionID: f.Session.ID, SeatIDs: ids, HolderID: buyerA, PaymentMethod: model.PaymentCash})
	require.NoError(t, err)

	_, err = svc.Payments.Verify(ctx, order.OrderCode, finance)
	require.Error(t, err)

	got, err := svc.Orders.Get(ctx, order.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPendingPayment, got.Status)
	assert.Nil(t, got.PaidAt)
	assert.Equal(t, model.PaymentPending, got.Payment.Status)
	for _, id := range ids {
		s := f.Seat(t, id)
		assert.Equal(t, model.SeatLocked, s.Status)
		assert.Equal(t, buyerA, *s.LockedBy)
	}
	assert.Zero(t, f.Count(t, `SELECT COUNT(*) FROM tickets`))
}

func TestVerify_UnknownOrder(t *testing.T) {
	e := newEngine(t)
	_, err := e.Payments.Verify(ctx, "TKT-2026-UNKNOWN2", finance)
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestRefund_VoidsIssuedTickets(t *testing.T) {
	e := newEngine(t)
	order, tickets := e.paid(t, buyerA, "V1", "V2")

	res, err := e.Admission.Admit(ctx, service.AdmitInput{TicketCode: tickets[0].TicketCode, OfficerID: officer1})
	require.NoError(t, err)
	require.Equal(t, model.ScanSuccess, res.Result)

	voided, err := e.Payments.Refund(ctx, order.OrderCode, finance)
	require.NoError(t, err)
	assert.Equal(t, int64(1), voided)

	assert.Equal(t, model.OrderRefunded, e.order(t, order.OrderCode).Status)
	list, err := e.Orders.Tickets(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketUsed, list[0].Status)
	assert.Equal(t, model.TicketVoided, list[1].Status)
	assert.Equal(t, model.SeatBooked, e.f.Seat(t, e.f.SeatID(t, "V1")).Status)

	_, err = e.Payments.Refund(ctx, order.OrderCode, finance)
	assert.ErrorIs(t, err, service.ErrOrderNotPaid)
}

func TestRefund_PendingOrder(t *testing.T) {
	e := newEngine(t)
	order := e.checkout(t, buyerA, "V1")
	_, err := e.Payments.Refund(ctx, order.OrderCode, finance)
	assert.ErrorIs(t, err, service.ErrOrderNotPaid)
}

var _ service.TicketCodes = (*utils.TicketCoder)(nil)
