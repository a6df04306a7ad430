package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Transitions(t *testing.T) {
	require.True(t, OrderStatusPending.CanTransitionTo(OrderStatusConfirmed))
	require.True(t, OrderStatusPending.CanTransitionTo(OrderStatusCancelled))
	require.True(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusCompleted))
	require.True(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusCancelled))

	require.False(t, OrderStatusPending.CanTransitionTo(OrderStatusCompleted))
	require.False(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusPending))
}

func TestOrderStatus_TerminalStatesAreImmutable(t *testing.T) {
	for _, terminal := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		for _, next := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled} {
			require.False(t, terminal.CanTransitionTo(next), "%s -> %s must be rejected", terminal, next)
		}
	}
}

func TestOrder_Transition(t *testing.T) {
	o := &Order{Status: OrderStatusPending}

	require.NoError(t, o.Transition(OrderStatusConfirmed))
	require.Equal(t, OrderStatusConfirmed, o.Status)

	err := o.Transition(OrderStatusPending)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, OrderStatusConfirmed, o.Status)
}

func TestOrder_CalculateTotal(t *testing.T) {
	o := &Order{
		DeliveryFee: 1500,
		Lines: []OrderLine{
			{UnitPrice: 10000, Quantity: 2},
			{UnitPrice: 350, Quantity: 3},
		},
	}

	o.CalculateTotal()

	require.Equal(t, int64(20000), o.Lines[0].LineTotal)
	require.Equal(t, int64(1050), o.Lines[1].LineTotal)
	require.Equal(t, int64(22550), o.TotalAmount)
}
