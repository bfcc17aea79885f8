package order_test

import (
	"testing"

	"separation/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	allStates = []order.LineState{
		order.Pending, order.Separated, order.AwaitingPurchase, order.Purchased, order.Substituted,
	}
	allActions = []order.Action{
		order.ActionSeparate,
		order.ActionMarkForPurchase,
		order.ActionConfirmPurchase,
		order.ActionSeparateAfterPurchase,
		order.ActionSubstitute,
	}
	// edges lists every legal move; anything else must be rejected.
	edges = map[order.LineState]map[order.Action]order.LineState{
		order.Pending: {
			order.ActionSeparate:        order.Separated,
			order.ActionMarkForPurchase: order.AwaitingPurchase,
			order.ActionSubstitute:      order.Substituted,
		},
		order.AwaitingPurchase: {order.ActionConfirmPurchase: order.Purchased},
		order.Purchased:        {order.ActionSeparateAfterPurchase: order.Separated},
		order.Separated:        {order.ActionSubstitute: order.Substituted},
		order.Substituted:      {order.ActionSubstitute: order.Substituted},
	}
)

func moveState(s order.LineState, a order.Action) (order.LineState, error) {
	switch a {
	case order.ActionSeparate:
		return s.Separate()
	case order.ActionMarkForPurchase:
		return s.MarkForPurchase()
	case order.ActionConfirmPurchase:
		return s.ConfirmPurchase()
	case order.ActionSeparateAfterPurchase:
		return s.SeparateAfterPurchase()
	default:
		return s.Substitute()
	}
}

func TestLineState_EdgeTable(t *testing.T) {
	for _, from := range allStates {
		for _, action := range allActions {
			t.Run(from.String()+"_"+action.String(), func(t *testing.T) {
				got, err := moveState(from, action)

				want, legal := edges[from][action]
				if legal {
					require.NoError(t, err)
					assert.Equal(t, want, got)
					return
				}
				require.ErrorIs(t, err, order.ErrInvalidTransition)
				var ite *order.InvalidTransitionError
				require.ErrorAs(t, err, &ite)
				assert.Equal(t, from, ite.State)
				assert.Equal(t, action, ite.Action)
			})
		}
	}
}

func TestLineState_IsResolved(t *testing.T) {
	resolved := map[order.LineState]bool{
		order.Pending:          false,
		order.Separated:        true,
		order.AwaitingPurchase: false,
		order.Purchased:        false,
		order.Substituted:      true,
	}
	for state, want := range resolved {
		assert.Equal(t, want, state.IsResolved(), state.String())
	}
}

func TestParseLineState(t *testing.T) {
	for _, s := range allStates {
		parsed, err := order.ParseLineState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := order.ParseLineState("UNKNOWN")
	require.Error(t, err)
	_, err = order.ParseLineState("separated")
	require.Error(t, err)
	assert.Error(t, order.LineState(42).Validate())
}

func TestAction_Validate(t *testing.T) {
	for _, a := range allActions {
		require.NoError(t, a.Validate())
	}
	assert.Error(t, order.Action("cancel").Validate())
}
