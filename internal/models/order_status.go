package models

import (
	"fmt"
	"time"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderReturned   OrderStatus = "returned"
)

// PaymentStatus tracks payment state independently of the order lifecycle.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// orderTransitions is the single allow-list for status changes. Every call
// site goes through Order.TransitionTo instead of assigning Status directly.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderDelivered, OrderReturned},
	OrderDelivered:  {OrderReturned},
	OrderCancelled:  {},
	OrderReturned:   {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:           {PaymentPaid, PaymentFailed},
	PaymentPaid:              {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentFailed:            {},
	PaymentRefunded:          {},
	PaymentPartiallyRefunded: {},
}

// ParseOrderStatus validates a raw status string from a request body.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if _, ok := orderTransitions[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return status, nil
}

// CanTransitionTo reports whether the allow-list permits moving to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	allowed, ok := orderTransitions[s]
	if !ok {
		return false
	}
	for _, next := range allowed {
		if next == target {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the payment allow-list permits target.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	allowed, ok := paymentTransitions[s]
	if !ok {
		return false
	}
	for _, next := range allowed {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the order to target, rejecting transitions outside the
// allow-list. ShippedAt and DeliveredAt are stamped the first time the
// corresponding status is reached.
func (o *Order) TransitionTo(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return fmt.Errorf("cannot transition order from %s to %s", o.Status, target)
	}

	o.Status = target
	now := time.Now()
	if target == OrderShipped && o.ShippedAt == nil {
		o.ShippedAt = &now
	}
	if target == OrderDelivered && o.DeliveredAt == nil {
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
	return nil
}

// CancellableByUser reports whether the owner may still cancel the order.
// Once the order moves past confirmed it can only be cancelled by support.
func (o *Order) CancellableByUser() bool {
	return o.Status == OrderPending || o.Status == OrderConfirmed
}
