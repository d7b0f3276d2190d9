package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to confirmed", OrderPending, OrderConfirmed, true},
		{"pending to cancelled", OrderPending, OrderCancelled, true},
		{"pending to shipped skips confirmation", OrderPending, OrderShipped, false},
		{"confirmed to processing", OrderConfirmed, OrderProcessing, true},
		{"confirmed to cancelled", OrderConfirmed, OrderCancelled, true},
		{"processing to shipped", OrderProcessing, OrderShipped, true},
		{"processing to cancelled too late", OrderProcessing, OrderCancelled, false},
		{"shipped to delivered", OrderShipped, OrderDelivered, true},
		{"shipped to returned", OrderShipped, OrderReturned, true},
		{"shipped back to pending", OrderShipped, OrderPending, false},
		{"delivered to returned", OrderDelivered, OrderReturned, true},
		{"cancelled is terminal", OrderCancelled, OrderConfirmed, false},
		{"returned is terminal", OrderReturned, OrderPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransitionToRejectsIllegalMove(t *testing.T) {
	order := &Order{Status: OrderShipped}
	err := order.TransitionTo(OrderPending)
	require.Error(t, err)
	assert.Equal(t, OrderShipped, order.Status)
}

func TestTransitionToStampsShippedAndDeliveredOnce(t *testing.T) {
	order := &Order{Status: OrderProcessing}

	require.NoError(t, order.TransitionTo(OrderShipped))
	require.NotNil(t, order.ShippedAt)
	firstShipped := *order.ShippedAt

	require.NoError(t, order.TransitionTo(OrderDelivered))
	require.NotNil(t, order.DeliveredAt)

	// a repeated stamp must not move the original timestamp
	order.Status = OrderProcessing
	require.NoError(t, order.TransitionTo(OrderShipped))
	assert.Equal(t, firstShipped, *order.ShippedAt)
}

func TestCancellableByUser(t *testing.T) {
	assert.True(t, (&Order{Status: OrderPending}).CancellableByUser())
	assert.True(t, (&Order{Status: OrderConfirmed}).CancellableByUser())
	assert.False(t, (&Order{Status: OrderShipped}).CancellableByUser())
	assert.False(t, (&Order{Status: OrderDelivered}).CancellableByUser())
	assert.False(t, (&Order{Status: OrderCancelled}).CancellableByUser())
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentPending.CanTransitionTo(PaymentPaid))
	assert.True(t, PaymentPending.CanTransitionTo(PaymentFailed))
	assert.True(t, PaymentPaid.CanTransitionTo(PaymentRefunded))
	assert.True(t, PaymentPaid.CanTransitionTo(PaymentPartiallyRefunded))
	assert.False(t, PaymentFailed.CanTransitionTo(PaymentPaid))
	assert.False(t, PaymentPaid.CanTransitionTo(PaymentPending))
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderShipped, status)

	_, err = ParseOrderStatus("teleported")
	assert.Error(t, err)
}
