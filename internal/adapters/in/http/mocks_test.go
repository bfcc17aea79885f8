package http_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"separation/internal/core/application/usecases/commands"
	"separation/internal/core/application/usecases/queries"
	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderCreator struct{ mock.Mock }

func (m *MockOrderCreator) Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error) {
	args := m.Called(ctx, cmd)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockLineTransitioner struct{ mock.Mock }

func (m *MockLineTransitioner) Handle(
	ctx context.Context,
	cmd commands.TransitionLineCommand,
) (commands.LineResult, error) {
	args := m.Called(ctx, cmd)
	res, _ := args.Get(0).(commands.LineResult)
	return res, args.Error(1)
}

type MockOrderFinalizer struct{ mock.Mock }

func (m *MockOrderFinalizer) Handle(
	ctx context.Context,
	cmd commands.FinalizeOrderCommand,
) (commands.FinalizeResult, error) {
	args := m.Called(ctx, cmd)
	res, _ := args.Get(0).(commands.FinalizeResult)
	return res, args.Error(1)
}

type MockShippingChanger struct{ mock.Mock }

func (m *MockShippingChanger) Handle(ctx context.Context, cmd commands.ChangeShippingCommand) (*order.Order, error) {
	args := m.Called(ctx, cmd)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockOrderReader struct{ mock.Mock }

func (m *MockOrderReader) Handle(
	ctx context.Context,
	query queries.GetOrderQuery,
) (queries.GetOrderQueryResponse, error) {
	args := m.Called(ctx, query)
	res, _ := args.Get(0).(queries.GetOrderQueryResponse)
	return res, args.Error(1)
}

type MockActiveOrdersReader struct{ mock.Mock }

func (m *MockActiveOrdersReader) Handle(
	ctx context.Context,
	query queries.GetInProgressOrdersQuery,
) ([]queries.GetInProgressOrdersQueryResponse, error) {
	args := m.Called(ctx, query)
	res, _ := args.Get(0).([]queries.GetInProgressOrdersQueryResponse)
	return res, args.Error(1)
}

type MockPurchaseQueueReader struct{ mock.Mock }

func (m *MockPurchaseQueueReader) Handle(
	ctx context.Context,
	query queries.GetPurchaseQueueQuery,
) ([]queries.GetPurchaseQueueQueryResponse, error) {
	args := m.Called(ctx, query)
	res, _ := args.Get(0).([]queries.GetPurchaseQueueQueryResponse)
	return res, args.Error(1)
}

var startedAt = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func actor(t *testing.T, ref string) kernel.Actor {
	t.Helper()
	a, err := kernel.NewActor(ref)
	require.NoError(t, err)
	return a
}

func newOrder(t *testing.T, lines int) *order.Order {
	t.Helper()
	specs := make([]order.LineSpec, 0, lines)
	for i := 1; i <= lines; i++ {
		price := decimal.RequireFromString("12.50")
		specs = append(specs, order.LineSpec{
			ProductCode: fmt.Sprintf("SKU-%03d", i),
			Description: fmt.Sprintf("Product %d", i),
			Quantity:    i,
			UnitPrice:   price,
			LineTotal:   price.Mul(decimal.NewFromInt(int64(i))),
		})
	}
	o, err := order.NewOrder(kernel.NewUUID(), order.Spec{
		ExternalReference: "PED-0001",
		Client:            "Mercado Central",
		Salesperson:       "rep-07",
		Logistics:         order.CarrierPost,
		Packaging:         order.Box,
		Lines:             specs,
	}, startedAt)
	require.NoError(t, err)
	return o
}
