package order_test

import (
	"fmt"
	"testing"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var startedAt = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func actor(t *testing.T, ref string) kernel.Actor {
	t.Helper()
	a, err := kernel.NewActor(ref)
	require.NoError(t, err)
	return a
}

func lineSpecs(n int) []order.LineSpec {
	specs := make([]order.LineSpec, 0, n)
	for i := 1; i <= n; i++ {
		price := decimal.RequireFromString("12.50")
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

func validSpec(lines int) order.Spec {
	return order.Spec{
		ExternalReference: "PED-0001",
		Client:            "Mercado Central",
		Salesperson:       "rep-07",
		Notes:             "dock 3",
		Logistics:         order.CarrierPost,
		Packaging:         order.Box,
		Lines:             lineSpecs(lines),
	}
}

func newOrder(t *testing.T, lines int) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), validSpec(lines), startedAt)
	require.NoError(t, err)
	return o
}

// lineIn returns a fresh line driven into state through its legal path.
func lineIn(t *testing.T, state order.LineState) *order.LineItem {
	t.Helper()
	l := newOrder(t, 1).Lines()[0]
	w := actor(t, "setup")
	at := startedAt.Add(time.Minute)

	switch state {
	case order.Pending:
	case order.Separated:
		require.NoError(t, l.Separate(w, at))
	case order.AwaitingPurchase:
		require.NoError(t, l.MarkForPurchase(w, at))
	case order.Purchased:
		require.NoError(t, l.MarkForPurchase(w, at))
		require.NoError(t, l.ConfirmPurchase(w, at))
	case order.Substituted:
		require.NoError(t, l.Substitute("alt", w, at))
	default:
		t.Fatalf("unsupported state %s", state)
	}
	return l
}

func apply(l *order.LineItem, action order.Action, a kernel.Actor, at time.Time) error {
	switch action {
	case order.ActionSeparate:
		return l.Separate(a, at)
	case order.ActionMarkForPurchase:
		return l.MarkForPurchase(a, at)
	case order.ActionConfirmPurchase:
		return l.ConfirmPurchase(a, at)
	case order.ActionSeparateAfterPurchase:
		return l.SeparateAfterPurchase(a, at)
	case order.ActionSubstitute:
		return l.Substitute("replacement", a, at)
	}
	return fmt.Errorf("unknown action %s", action)
}
