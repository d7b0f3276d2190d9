package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"koselimart/internal/models"
)

// ErrNotFound is returned by lookups that matched no document.
var ErrNotFound = errors.New("not found")

// Products exposes the product reads and the stock mutation checkout needs.
type Products interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// DeductStock decrements tracked stock and bumps the sales counter in a
	// single atomic per-document update.
	DeductStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

// Carts persists per-user carts.
type Carts interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Upsert(ctx context.Context, cart *models.Cart) error
	// Clear empties the cart's items; the cart document persists.
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// Orders persists orders and the conditional updates the checkout flow
// relies on for idempotency.
type Orders interface {
	Insert(ctx context.Context, order *models.Order) error
	NextOrderNumber(ctx context.Context) (string, error)
	// FindPending returns the order only when it is owned by userID,
	// references intentID and is still pending. Anything else is ErrNotFound,
	// deliberately indistinguishable from a missing order.
	FindPending(ctx context.Context, orderID, userID primitive.ObjectID, intentID string) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	// MarkPaid confirms the order and flags stock as deducted, guarded so it
	// applies at most once. Reports whether this call won the guard.
	MarkPaid(ctx context.Context, orderID primitive.ObjectID, chargeID string) (bool, error)
	// MarkPaymentFailed cancels a still-pending order for a failed intent.
	MarkPaymentFailed(ctx context.Context, intentID string) error
}

// TxnRunner runs fn inside a storage transaction. Store calls made with the
// context passed to fn participate in that transaction.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
