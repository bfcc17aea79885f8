package commands_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"separation/internal/core/application/usecases/commands"
	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var startedAt = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetLine(ctx context.Context, orderID, lineID kernel.UUID) (*order.LineItem, error) {
	args := m.Called(ctx, orderID, lineID)
	l, _ := args.Get(0).(*order.LineItem)
	return l, args.Error(1)
}

func (m *MockOrderRepository) UpdateLine(
	ctx context.Context,
	line *order.LineItem,
	expectedState order.LineState,
	expectedVersion int64,
) (bool, error) {
	args := m.Called(ctx, line, expectedState, expectedVersion)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Finalize(ctx context.Context, o *order.Order) (bool, error) {
	args := m.Called(ctx, o)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdateShipping(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Progress(ctx context.Context, id kernel.UUID) (order.Progress, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(order.Progress)
	return p, args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, event order.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []order.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event order.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []order.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]order.Event(nil), p.events...)
}

func (p *recordingPublisher) Types() []order.EventType {
	events := p.Events()
	types := make([]order.EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

// countingRecorder counts observations per outcome.
type countingRecorder struct {
	mu        sync.Mutex
	created   map[string]int
	moved     map[string]int
	finalized map[string]int
	shipping  map[string]int
	elapsed   []time.Duration
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		created:   map[string]int{},
		moved:     map[string]int{},
		finalized: map[string]int{},
		shipping:  map[string]int{},
	}
}

func (r *countingRecorder) OrderCreated(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[outcome]++
}

func (r *countingRecorder) LineTransitioned(action order.Action, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moved[action.String()+"/"+outcome]++
}

func (r *countingRecorder) OrderFinalized(outcome string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized[outcome]++
	if outcome == commands.OutcomeOK {
		r.elapsed = append(r.elapsed, elapsed)
	}
}

func (r *countingRecorder) ShippingChanged(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shipping[outcome]++
}

// clock advances by step on every call.
func clock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start.Add(-step)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func actor(t *testing.T, ref string) kernel.Actor {
	t.Helper()
	a, err := kernel.NewActor(ref)
	require.NoError(t, err)
	return a
}

func lineSpecs(n int) []order.LineSpec {
	specs := make([]order.LineSpec, 0, n)
	for i := 1; i <= n; i++ {
		price := decimal.RequireFromString("9.90")
		specs = append(specs, order.LineSpec{
			ProductCode: fmt.Sprintf("SKU-%03d", i),
			Description: fmt.Sprintf("Product %d", i),
			Quantity:    i,
			UnitPrice:   price,
			LineTotal:   price.Mul(decimal.NewFromInt(int64(i))),
		})
	}
	return specs
}

func orderSpec(ref string, lines int) order.Spec {
	return order.Spec{
		ExternalReference: ref,
		Client:            "Mercado Central",
		Salesperson:       "rep-07",
		Logistics:         order.CarrierPost,
		Packaging:         order.Box,
		Lines:             lineSpecs(lines),
	}
}

func newOrder(t *testing.T, lines int) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), orderSpec("PED-"+kernel.NewUUID().String()[:8], lines), startedAt)
	require.NoError(t, err)
	return o
}
