package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/repository"
	"github.com/iliyamo/event-seat-ticketing/internal/service"
	"github.com/iliyamo/event-seat-ticketing/internal/testutil"
)

func TestCheckout_TotalsAndDeadline(t *testing.T) {
	e := newEngine(t)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	require.NoError(t, err)
	e.f.Clock.Advance(5 * time.Minute)
	_, err = e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "R3"), buyerA)
	require.NoError(t, err)

	order, err := e.Orders.Checkout(ctx, service.CheckoutInput{
		SessionID:     e.f.Session.ID,
		SeatIDs:       e.ids(t, "R3", "V1"),
		HolderID:      buyerA,
		PaymentMethod: model.PaymentBankTransfer,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TKT-2026-[2-9A-HJ-NP-Z]{8}$`, order.OrderCode)
	assert.Equal(t, model.OrderPendingPayment, order.Status)
	assert.Equal(t, testutil.VIPPrice+testutil.RegularPrice, order.SubtotalCents)
	assert.Equal(t, int64(2500), order.ServiceFeeCents)
	assert.Equal(t, order.SubtotalCents+order.ServiceFeeCents, order.TotalCents)
	// The earliest hold wins.
	assert.WithinDuration(t, testutil.Epoch.Add(holdTTL), order.PaymentDeadline, time.Millisecond)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "V1", order.Items[0].SeatCodeSnapshot)
	assert.Equal(t, "VIP", order.Items[0].CategoryNameSnapshot)
	assert.Equal(t, testutil.VIPPrice, order.Items[0].PriceSnapshotCents)
	assert.Equal(t, "R3", order.Items[1].SeatCodeSnapshot)
	assert.Equal(t, testutil.RegularPrice, order.Items[1].PriceSnapshotCents)

	require.NotNil(t, order.Payment)
	assert.Equal(t, model.PaymentPending, order.Payment.Status)
	assert.Equal(t, model.PaymentBankTransfer, order.Payment.PaymentMethod)
}

func TestCheckout_LapsedHoldCreatesNothing(t *testing.T) {
	e := newEngine(t)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1", "V2"), buyerA)
	require.NoError(t, err)
	e.f.Clock.Advance(holdTTL)

	_, err = e.Orders.Checkout(ctx, service.CheckoutInput{
		SessionID:     e.f.Session.ID,
		SeatIDs:       e.ids(t, "V1", "V2"),
		HolderID:      buyerA,
		PaymentMethod: model.PaymentCash,
	})
	var holdErr *service.HoldExpiredError
	require.ErrorAs(t, err, &holdErr)
	assert.Equal(t, "V1", holdErr.SeatCode)

	assert.Zero(t, e.f.Count(t, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, e.f.Count(t, `SELECT COUNT(*) FROM order_items`))
	assert.Zero(t, e.f.Count(t, `SELECT COUNT(*) FROM order_payments`))
}

func TestCheckout_SeatsHeldBySomeoneElse(t *testing.T) {
	e := newEngine(t)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, e.ids(t, "V1"), buyerA)
	require.NoError(t, err)

	_, err = e.Orders.Checkout(ctx, service.CheckoutInput{
		SessionID:     e.f.Session.ID,
		SeatIDs:       e.ids(t, "V1"),
		HolderID:      buyerB,
		PaymentMethod: model.PaymentCash,
	})
	assert.ErrorIs(t, err, service.ErrHoldExpired)
}

func TestCheckout_UsesConfiguredOrderCodes(t *testing.T) {
	var seen []time.Time
	e := newEngine(t, service.WithOrderCodes(func(now time.Time) string {
		seen = append(seen, now)
		return fmt.Sprintf("TKT-%d-SEQ%05d", now.Year(), len(seen))
	}))

	first := e.checkout(t, buyerA, "V1")
	e.f.Clock.Advance(time.Minute)
	second := e.checkout(t, buyerB, "R1")

	assert.Equal(t, "TKT-2026-SEQ00001", first.OrderCode)
	assert.Equal(t, "TKT-2026-SEQ00002", second.OrderCode)
	require.Len(t, seen, 2)
	assert.WithinDuration(t, testutil.Epoch.Add(time.Minute), seen[1], time.Millisecond)
	assert.Equal(t, first.ID, e.order(t, "TKT-2026-SEQ00001").ID)
}

func TestCheckout_SameSeatsTwice(t *testing.T) {
	e := newEngine(t)
	e.checkout(t, buyerA, "V1")

	_, err := e.Orders.Checkout(ctx, service.CheckoutInput{
		SessionID:     e.f.Session.ID,
		SeatIDs:       e.ids(t, "V1"),
		HolderID:      buyerA,
		PaymentMethod: model.PaymentCash,
	})
	assert.ErrorIs(t, err, service.ErrSeatUnavailable)
	assert.Equal(t, 1, e.f.Count(t, `SELECT COUNT(*) FROM orders`))
}

func TestCheckout_InvalidPaymentMethod(t *testing.T) {
	e := newEngine(t)
	_, err := e.Orders.Checkout(ctx, service.CheckoutInput{
		SessionID:     e.f.Session.ID,
		SeatIDs:       e.ids(t, "V1"),
		HolderID:      buyerA,
		PaymentMethod: "barter",
	})
	assert.ErrorIs(t, err, service.ErrInvalidPaymentMethod)
}

func TestCheckout_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	e := newEngine(t)
	order := e.checkout(t, buyerA, "V1")

	require.NoError(t, e.f.Store.Catalog.UpdatePrice(ctx, e.f.VIP.ID, 999, testutil.Epoch))

	got := e.order(t, order.OrderCode)
	assert.Equal(t, testutil.VIPPrice, got.Items[0].PriceSnapshotCents)
	assert.Equal(t, order.TotalCents, got.TotalCents)

	res, err := e.Payments.Verify(ctx, order.OrderCode, finance)
	require.NoError(t, err)
	assert.Equal(t, testutil.VIPPrice, res.Tickets[0].PricePaidSnapshotCents)
	assert.Equal(t, order.TotalCents, *res.Order.Payment.AmountPaidCents)
}

func TestSubmitTransferProof(t *testing.T) {
	e := newEngine(t)
	order := e.checkout(t, buyerA, "V1")
	proof := repository.TransferProof{
		BankName:      "BCA",
		AccountNumber: "1234567890",
		AccountName:   "A. Buyer",
		ProofRef:      "receipts/abc.jpg",
		TransferredAt: testutil.Epoch.Add(time.Minute),
	}

	err := e.Orders.SubmitTransferProof(ctx, order.OrderCode, buyerB, proof)
	assert.ErrorIs(t, err, service.ErrNotOrderOwner)

	require.NoError(t, e.Orders.SubmitTransferProof(ctx, order.OrderCode, buyerA, proof))
	got := e.order(t, order.OrderCode)
	require.NotNil(t, got.Payment.BankName)
	assert.Equal(t, "BCA", *got.Payment.BankName)
	require.NotNil(t, got.Payment.TransferProof)
	assert.Equal(t, "receipts/abc.jpg", *got.Payment.TransferProof)
	assert.Equal(t, model.PaymentPending, got.Payment.Status)
}

func TestCancel_ReleasesSeats(t *testing.T) {
	e := newEngine(t)
	order := e.checkout(t, buyerA, "V1", "V2")

	cancelled, err := e.Orders.Cancel(ctx, order.OrderCode, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)

	got := e.order(t, order.OrderCode)
	assert.Equal(t, model.OrderCancelled, got.Status)
	assert.Equal(t, model.PaymentRejected, got.Payment.Status)
	for _, it := range got.Items {
		assert.Nil(t, it.ActiveSeatID)
		assert.Equal(t, model.SeatAvailable, e.f.Seat(t, it.SeatID).Status)
	}

	require.Len(t, e.pub.released, 1)
	assert.Equal(t, string(model.OrderCancelled), e.pub.released[0].Status)
	assert.Equal(t, 2, e.pub.released[0].SeatsFreed)

	_, err = e.Orders.Cancel(ctx, order.OrderCode, 1)
	assert.ErrorIs(t, err, service.ErrOrderNotPending)

	// The seats can be sold again.
	e.checkout(t, buyerB, "V1", "V2")
}

func TestGet_UnknownOrder(t *testing.T) {
	e := newEngine(t)
	_, err := e.Orders.Get(ctx, "TKT-2026-NOPE2345")
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}
