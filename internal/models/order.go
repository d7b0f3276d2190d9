package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is a snapshot of a cart line at the time the order was placed.
// Name and image are denormalized so later product edits do not alter
// historical orders.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
}

// OrderAddress holds shipping or billing address details for an order.
type OrderAddress struct {
	FirstName string `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName  string `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Street    string `bson:"street,omitempty" json:"street,omitempty"`
	City      string `bson:"city,omitempty" json:"city,omitempty"`
	State     string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode   string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country   string `bson:"country,omitempty" json:"country,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Order is the persisted order document.
//
// Total is computed once at creation as
// subtotal + shippingCost + taxAmount - discountAmount and never recomputed.
// StockDeducted guards fulfillment so stock is deducted at most once no
// matter which confirmation path (client call or webhook) fires first.
type Order struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber           string             `bson:"orderNumber" json:"orderNumber"`
	UserID                primitive.ObjectID `bson:"userId" json:"userId"`
	Items                 []OrderItem        `bson:"items" json:"items"`
	ShippingAddress       OrderAddress       `bson:"shippingAddress" json:"shippingAddress"`
	BillingAddress        OrderAddress       `bson:"billingAddress" json:"billingAddress"`
	Subtotal              float64            `bson:"subtotal" json:"subtotal"`
	ShippingCost          float64            `bson:"shippingCost" json:"shippingCost"`
	TaxAmount             float64            `bson:"taxAmount" json:"taxAmount"`
	DiscountAmount        float64            `bson:"discountAmount" json:"discountAmount"`
	Total                 float64            `bson:"total" json:"total"`
	PaymentMethod         string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus         PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	StripePaymentIntentID string             `bson:"stripePaymentIntentId,omitempty" json:"stripePaymentIntentId,omitempty"`
	StripeChargeID        string             `bson:"stripeChargeId,omitempty" json:"stripeChargeId,omitempty"`
	Status                OrderStatus        `bson:"status" json:"status"`
	StockDeducted         bool               `bson:"stockDeducted" json:"-"`
	TrackingNumber        string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Carrier               string             `bson:"carrier,omitempty" json:"carrier,omitempty"`
	EstimatedDelivery     *time.Time         `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	ShippedAt             *time.Time         `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	DeliveredAt           *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	Notes                 string             `bson:"notes,omitempty" json:"notes,omitempty"`
	AdminNotes            string             `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TotalItems returns the summed quantity across all line items.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// FormatOrderNumber renders an order number from a counter value and a
// creation time: "KM" + last six digits of the unix-millisecond timestamp +
// zero-padded sequence. The sequence comes from an atomic counter, so
// numbers stay unique under concurrent order creation.
func FormatOrderNumber(seq int64, at time.Time) string {
	millis := fmt.Sprintf("%d", at.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return fmt.Sprintf("KM%s%04d", millis, seq)
}
