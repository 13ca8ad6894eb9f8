package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-ticketing/internal/model"
	"github.com/iliyamo/event-seat-ticketing/internal/queue"
	"github.com/iliyamo/event-seat-ticketing/internal/service"
	"github.com/iliyamo/event-seat-ticketing/internal/testutil"
	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

const (
	buyerA   uint64 = 101
	buyerB   uint64 = 102
	finance  uint64 = 201
	officer1 uint64 = 301
	officer2 uint64 = 302
	holdTTL         = 15 * time.Minute
)

var ctx = context.Background()

type recordingPublisher struct {
	mu       sync.Mutex
	issued   []queue.TicketsIssuedEvent
	released []queue.OrderReleasedEvent
}

func (p *recordingPublisher) PublishTicketsIssued(_ context.Context, ev queue.TicketsIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued = append(p.issued, ev)
	return nil
}

func (p *recordingPublisher) PublishOrderReleased(_ context.Context, ev queue.OrderReleasedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = append(p.released, ev)
	return nil
}

type engine struct {
	*service.Services
	f     *testutil.Fixture
	pub   *recordingPublisher
	coder *utils.TicketCoder
}

func newEngine(t *testing.T, opts ...service.Option) *engine {
	t.Helper()
	f := testutil.Seed(t)
	pub := &recordingPublisher{}
	coder := utils.NewTicketCoder("test-signing-key")
	cfg := service.Config{HoldTTL: holdTTL, ServiceFeeCents: 2500, SweepBatchSize: 100}
	opts = append([]service.Option{service.WithPublisher(pub)}, opts...)
	return &engine{
		Services: service.New(f.Store, f.Clock, coder, cfg, opts...),
		f:        f,
		pub:      pub,
		coder:    coder,
	}
}

func (e *engine) ids(t *testing.T, codes ...string) []uint64 {
	out := make([]uint64, 0, len(codes))
	for _, c := range codes {
		out = append(out, e.f.SeatID(t, c))
	}
	return out
}

// checkout locks the seats for buyer and checks them out.
func (e *engine) checkout(t *testing.T, buyer uint64, codes ...string) *model.Order {
	t.Helper()
	ids := e.ids(t, codes...)
	_, err := e.Locks.Lock(ctx, e.f.Session.ID, ids, buyer)
	require.NoError(t, err)
	order, err := e.Orders.Checkout(ctx, service.CheckoutInput{
		SessionID:     e.f.Session.ID,
		SeatIDs:       ids,
		HolderID:      buyer,
		PaymentMethod: model.PaymentBankTransfer,
	})
	require.NoError(t, err)
	return order
}

// paid runs checkout and verification and returns the issued tickets.
func (e *engine) paid(t *testing.T, buyer uint64, codes ...string) (*model.Order, []model.Ticket) {
	t.Helper()
	order := e.checkout(t, buyer, codes...)
	res, err := e.Payments.Verify(ctx, order.OrderCode, finance)
	require.NoError(t, err)
	return &res.Order, res.Tickets
}

func (e *engine) order(t *testing.T, code string) *model.Order {
	t.Helper()
	o, err := e.Orders.Get(ctx, code)
	require.NoError(t, err)
	return o
}
