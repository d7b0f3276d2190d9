package checkout

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrEmptyCart fails a checkout attempt on a cart with no line items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderNotFound covers both a genuinely missing order and one that was
	// already processed. The two cases are deliberately indistinguishable so
	// a stale retry or a caller who is not the owner learns nothing about
	// order state.
	ErrOrderNotFound = errors.New("order not found or already processed")
)

// Reasons attached to each entry of an UnavailableProductsError.
const (
	ReasonNoLongerAvailable = "no_longer_available"
	ReasonInsufficientStock = "insufficient_stock"
)

// ValidationError reports malformed checkout input such as a negative
// shipping cost.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UnavailableProduct describes one cart line that failed revalidation.
type UnavailableProduct struct {
	ProductID      primitive.ObjectID `json:"productId"`
	Name           string             `json:"name"`
	Reason         string             `json:"reason"`
	AvailableStock *int               `json:"availableStock,omitempty"`
}

// UnavailableProductsError collects every offending cart line; checkout
// never short-circuits on the first violation.
type UnavailableProductsError struct {
	Products []UnavailableProduct
}

func (e *UnavailableProductsError) Error() string {
	return fmt.Sprintf("%d cart items are no longer available", len(e.Products))
}

// PaymentNotSucceededError carries the gateway's reported intent status when
// it is anything other than succeeded.
type PaymentNotSucceededError struct {
	Status string
}

func (e *PaymentNotSucceededError) Error() string {
	return fmt.Sprintf("payment not successful: intent status is %s", e.Status)
}
