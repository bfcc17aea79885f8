package services_test

import (
	"testing"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/core/domain/services"
	"separation/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

func newOrder(t *testing.T, lines int) *order.Order {
	t.Helper()
	specs := make([]order.LineSpec, lines)
	for i := range specs {
		specs[i] = order.LineSpec{
			ProductCode: "SKU",
			Description: "Widget",
			Quantity:    1,
			UnitPrice:   decimal.NewFromInt(3),
			LineTotal:   decimal.NewFromInt(3),
		}
	}
	o, err := order.NewOrder(kernel.NewUUID(), order.Spec{
		ExternalReference: "PED-42",
		Client:            "Client",
		Salesperson:       "rep",
		Logistics:         order.InStore,
		Packaging:         order.Bag,
		Lines:             specs,
	}, now)
	require.NoError(t, err)
	return o
}

func worker(t *testing.T, ref string) kernel.Actor {
	t.Helper()
	a, err := kernel.NewActor(ref)
	require.NoError(t, err)
	return a
}

func TestTransitionEngine_Apply(t *testing.T) {
	engine := services.NewTransitionEngine()

	t.Run("returns_precondition_of_the_write", func(t *testing.T) {
		// Given
		o := newOrder(t, 2)
		lineID := o.Lines()[1].ID()

		// When
		outcome, err := engine.Apply(o, lineID, services.Transition{
			Action: order.ActionMarkForPurchase,
			Actor:  worker(t, "worker-1"),
			At:     now,
		})

		// Then
		require.NoError(t, err)
		assert.Equal(t, order.Pending, outcome.ExpectedState)
		assert.Equal(t, int64(1), outcome.ExpectedVersion)
		assert.Equal(t, order.AwaitingPurchase, outcome.Line.State())
		assert.Equal(t, int64(2), outcome.Line.Version())
	})

	t.Run("dispatches_every_action", func(t *testing.T) {
		o := newOrder(t, 2)
		w := worker(t, "worker-1")
		first, second := o.Lines()[0].ID(), o.Lines()[1].ID()

		steps := []struct {
			line   kernel.UUID
			action order.Action
			want   order.LineState
		}{
			{first, order.ActionMarkForPurchase, order.AwaitingPurchase},
			{first, order.ActionConfirmPurchase, order.Purchased},
			{first, order.ActionSeparateAfterPurchase, order.Separated},
			{second, order.ActionSeparate, order.Separated},
			{second, order.ActionSubstitute, order.Substituted},
		}
		for _, s := range steps {
			out, err := engine.Apply(o, s.line, services.Transition{
				Action: s.action, Actor: w, At: now, Description: "alt-sku",
			})
			require.NoError(t, err, s.action.String())
			assert.Equal(t, s.want, out.Line.State())
		}
		assert.True(t, o.Progress().IsComplete())
	})

	t.Run("rejects_on_finalized_order", func(t *testing.T) {
		o := newOrder(t, 1)
		w := worker(t, "worker-1")
		_, err := engine.Apply(o, o.Lines()[0].ID(), services.Transition{Action: order.ActionSubstitute, Actor: w, At: now, Description: "x"})
		require.NoError(t, err)
		_, err = o.Finalize(w, now.Add(time.Minute))
		require.NoError(t, err)

		_, err = engine.Apply(o, o.Lines()[0].ID(), services.Transition{Action: order.ActionSubstitute, Actor: w, At: now, Description: "y"})

		require.ErrorIs(t, err, order.ErrAlreadyFinalized)
		assert.Equal(t, "x", o.Lines()[0].SubstituteDescription())
	})

	t.Run("unknown_line", func(t *testing.T) {
		o := newOrder(t, 1)

		_, err := engine.Apply(o, kernel.NewUUID(), services.Transition{Action: order.ActionSeparate, Actor: worker(t, "w"), At: now})

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("unknown_action", func(t *testing.T) {
		o := newOrder(t, 1)

		_, err := engine.Apply(o, o.Lines()[0].ID(), services.Transition{Action: "teleport", Actor: worker(t, "w"), At: now})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, order.Pending, o.Lines()[0].State())
	})

	t.Run("invalid_transition_names_the_winner", func(t *testing.T) {
		o := newOrder(t, 1)
		lineID := o.Lines()[0].ID()
		_, err := engine.Apply(o, lineID, services.Transition{Action: order.ActionSeparate, Actor: worker(t, "worker-1"), At: now})
		require.NoError(t, err)

		_, err = engine.Apply(o, lineID, services.Transition{Action: order.ActionSeparate, Actor: worker(t, "worker-2"), At: now})

		var ite *order.InvalidTransitionError
		require.ErrorAs(t, err, &ite)
		assert.Equal(t, "worker-1", ite.HandledBy)
		assert.Equal(t, order.Separated, ite.State)
	})

	t.Run("zero_order", func(t *testing.T) {
		_, err := engine.Apply(&order.Order{}, kernel.NewUUID(), services.Transition{Action: order.ActionSeparate})
		require.ErrorIs(t, err, order.ErrOrderIsNotConstructed)
	})
}
