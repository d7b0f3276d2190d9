package checkout

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"koselimart/internal/models"
	"koselimart/internal/payment"
	"koselimart/internal/store"
)

// In-memory doubles mirroring the conditional-update semantics of the Mongo
// stores, so the service can be exercised without a database.

type fakeProducts struct {
	products   map[primitive.ObjectID]*models.Product
	deductions map[primitive.ObjectID]int
	failDeduct map[primitive.ObjectID]bool
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{
		products:   make(map[primitive.ObjectID]*models.Product),
		deductions: make(map[primitive.ObjectID]int),
		failDeduct: make(map[primitive.ObjectID]bool),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *product
	return &copied, nil
}

func (f *fakeProducts) DeductStock(_ context.Context, id primitive.ObjectID, qty int) error {
	if f.failDeduct[id] {
		return fmt.Errorf("simulated deduction failure")
	}
	product, ok := f.products[id]
	if !ok {
		return store.ErrNotFound
	}
	product.Stock.Quantity -= qty
	product.SalesCount += qty
	f.deductions[id] += qty
	return nil
}

type fakeCarts struct {
	carts map[primitive.ObjectID]*models.Cart
}

func newFakeCarts(carts ...*models.Cart) *fakeCarts {
	f := &fakeCarts{carts: make(map[primitive.ObjectID]*models.Cart)}
	for _, c := range carts {
		f.carts[c.UserID] = c
	}
	return f
}

func (f *fakeCarts) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cart, nil
}

func (f *fakeCarts) Upsert(_ context.Context, cart *models.Cart) error {
	f.carts[cart.UserID] = cart
	return nil
}

func (f *fakeCarts) Clear(_ context.Context, userID primitive.ObjectID) error {
	if cart, ok := f.carts[userID]; ok {
		cart.Clear()
	}
	return nil
}

type fakeOrders struct {
	orders map[primitive.ObjectID]*models.Order
	seq    int64
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (f *fakeOrders) Insert(_ context.Context, order *models.Order) error {
	order.ID = primitive.NewObjectID()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrders) NextOrderNumber(_ context.Context) (string, error) {
	f.seq++
	return fmt.Sprintf("KM%010d", f.seq), nil
}

func (f *fakeOrders) FindPending(_ context.Context, orderID, userID primitive.ObjectID, intentID string) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.UserID != userID || order.StripePaymentIntentID != intentID || order.Status != models.OrderPending {
		return nil, store.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrders) FindByPaymentIntent(_ context.Context, intentID string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.StripePaymentIntentID == intentID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrders) MarkPaid(_ context.Context, orderID primitive.ObjectID, chargeID string) (bool, error) {
	order, ok := f.orders[orderID]
	if !ok || order.Status != models.OrderPending || order.StockDeducted {
		return false, nil
	}
	order.Status = models.OrderConfirmed
	order.PaymentStatus = models.PaymentPaid
	order.StockDeducted = true
	if chargeID != "" {
		order.StripeChargeID = chargeID
	}
	return true, nil
}

func (f *fakeOrders) MarkPaymentFailed(_ context.Context, intentID string) error {
	for _, order := range f.orders {
		if order.StripePaymentIntentID == intentID && order.Status == models.OrderPending {
			order.PaymentStatus = models.PaymentFailed
			order.Status = models.OrderCancelled
		}
	}
	return nil
}

type createCall struct {
	amount   int64
	currency string
	metadata map[string]string
}

type fakeGateway struct {
	status       string
	chargeID     string
	createCalls  []createCall
	intentNumber int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{status: payment.IntentStatusSucceeded, chargeID: "ch_test"}
}

func (f *fakeGateway) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	f.createCalls = append(f.createCalls, createCall{amount: amountMinor, currency: currency, metadata: metadata})
	f.intentNumber++
	id := fmt.Sprintf("pi_%d", f.intentNumber)
	return &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       amountMinor,
	}, nil
}

func (f *fakeGateway) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	return &payment.Intent{ID: id, Status: f.status, ChargeID: f.chargeID}, nil
}

type fakeTxn struct{}

func (fakeTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
