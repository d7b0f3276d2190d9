package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"koselimart/internal/models"
	"koselimart/internal/payment"
)

type fixture struct {
	service  *Service
	products *fakeProducts
	carts    *fakeCarts
	orders   *fakeOrders
	gateway  *fakeGateway
	userID   primitive.ObjectID
}

func newFixture(products []*models.Product, cartItems []models.CartItem) *fixture {
	userID := primitive.NewObjectID()
	cart := &models.Cart{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Items:  cartItems,
	}

	f := &fixture{
		products: newFakeProducts(products...),
		carts:    newFakeCarts(cart),
		orders:   newFakeOrders(),
		gateway:  newFakeGateway(),
		userID:   userID,
	}
	f.service = NewService(f.products, f.carts, f.orders, f.gateway, fakeTxn{})
	return f
}

func trackedProduct(name string, price float64, quantity int) *models.Product {
	return &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Price:    price,
		Status:   models.ProductStatusActive,
		IsActive: true,
		Stock:    models.Stock{Quantity: quantity, TrackInventory: true},
	}
}

func TestCreatePaymentIntentEmptyCart(t *testing.T) {
	f := newFixture(nil, nil)

	_, err := f.service.CreatePaymentIntent(context.Background(), f.userID, PaymentIntentRequest{})

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.gateway.createCalls)
}

func TestCreatePaymentIntentComputesTotalsFromSnapshots(t *testing.T) {
	// cart = [{product A, qty 2, price 5.00}], shipping 3, tax 1 → total 14.00
	productA := trackedProduct("Product A", 7.50, 10) // live price differs from snapshot
	f := newFixture([]*models.Product{productA}, []models.CartItem{
		{ProductID: productA.ID, Quantity: 2, Price: 5.00},
	})

	result, err := f.service.CreatePaymentIntent(context.Background(), f.userID, PaymentIntentRequest{
		ShippingCost: 3,
		TaxAmount:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, 14.00, result.Total)
	require.Len(t, f.gateway.createCalls, 1)
	assert.Equal(t, int64(1400), f.gateway.createCalls[0].amount)

	require.Len(t, f.orders.orders, 1)
	order := f.orders.orders[result.OrderID]
	require.NotNil(t, order)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, order.Subtotal+order.ShippingCost+order.TaxAmount-order.DiscountAmount, order.Total)
	assert.Equal(t, 5.00, order.Items[0].Price, "order keeps the cart price snapshot")
	assert.Equal(t, "Product A", order.Items[0].Name)
}

func TestCreatePaymentIntentCollectsAllUnavailableItems(t *testing.T) {
	lowStock := trackedProduct("Low Stock", 5, 1)
	inactive := trackedProduct("Retired", 9, 50)
	inactive.IsActive = false
	deletedID := primitive.NewObjectID()

	f := newFixture([]*models.Product{lowStock, inactive}, []models.CartItem{
		{ProductID: lowStock.ID, Quantity: 2, Price: 5},
		{ProductID: inactive.ID, Quantity: 1, Price: 9},
		{ProductID: deletedID, Quantity: 1, Price: 4},
	})

	_, err := f.service.CreatePaymentIntent(context.Background(), f.userID, PaymentIntentRequest{})

	var unavailable *UnavailableProductsError
	require.ErrorAs(t, err, &unavailable)
	require.Len(t, unavailable.Products, 3)

	byID := make(map[primitive.ObjectID]UnavailableProduct)
	for _, p := range unavailable.Products {
		byID[p.ProductID] = p
	}

	assert.Equal(t, ReasonInsufficientStock, byID[lowStock.ID].Reason)
	require.NotNil(t, byID[lowStock.ID].AvailableStock)
	assert.Equal(t, 1, *byID[lowStock.ID].AvailableStock)
	assert.Equal(t, ReasonNoLongerAvailable, byID[inactive.ID].Reason)
	assert.Equal(t, ReasonNoLongerAvailable, byID[deletedID].Reason)
	assert.Equal(t, "Unknown Product", byID[deletedID].Name)

	// atomic failure: no order written, gateway never called
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.gateway.createCalls)
}

func TestCreatePaymentIntentRejectsNegativeAmounts(t *testing.T) {
	product := trackedProduct("Product", 5, 10)
	f := newFixture([]*models.Product{product}, []models.CartItem{
		{ProductID: product.ID, Quantity: 1, Price: 5},
	})

	_, err := f.service.CreatePaymentIntent(context.Background(), f.userID, PaymentIntentRequest{
		ShippingCost: -1,
	})

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func confirmableOrder(t *testing.T, f *fixture) *PaymentIntentResult {
	t.Helper()
	result, err := f.service.CreatePaymentIntent(context.Background(), f.userID, PaymentIntentRequest{
		ShippingCost: 3,
		TaxAmount:    1,
	})
	require.NoError(t, err)
	return result
}

func TestConfirmPaymentFulfillsOnce(t *testing.T) {
	product := trackedProduct("Product A", 5, 10)
	f := newFixture([]*models.Product{product}, []models.CartItem{
		{ProductID: product.ID, Quantity: 2, Price: 5},
	})
	result := confirmableOrder(t, f)
	intentID := f.orders.orders[result.OrderID].StripePaymentIntentID

	order, err := f.service.ConfirmPayment(context.Background(), f.userID, intentID, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "ch_test", order.StripeChargeID)

	assert.Equal(t, 2, f.products.deductions[product.ID])
	assert.Equal(t, 8, f.products.products[product.ID].Stock.Quantity)
	assert.Equal(t, 2, f.products.products[product.ID].SalesCount)

	// cart record persists but is empty
	cart, err := f.carts.GetByUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.TotalItems())

	// a second confirmation is rejected without further stock mutation
	_, err = f.service.ConfirmPayment(context.Background(), f.userID, intentID, result.OrderID)
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 2, f.products.deductions[product.ID])
}

func TestConfirmPaymentRejectsWrongOwner(t *testing.T) {
	product := trackedProduct("Product A", 5, 10)
	f := newFixture([]*models.Product{product}, []models.CartItem{
		{ProductID: product.ID, Quantity: 1, Price: 5},
	})
	result := confirmableOrder(t, f)
	intentID := f.orders.orders[result.OrderID].StripePaymentIntentID

	_, err := f.service.ConfirmPayment(context.Background(), primitive.NewObjectID(), intentID, result.OrderID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConfirmPaymentRequiresSucceededIntent(t *testing.T) {
	product := trackedProduct("Product A", 5, 10)
	f := newFixture([]*models.Product{product}, []models.CartItem{
		{ProductID: product.ID, Quantity: 1, Price: 5},
	})
	result := confirmableOrder(t, f)
	intentID := f.orders.orders[result.OrderID].StripePaymentIntentID
	f.gateway.status = "requires_payment_method"

	_, err := f.service.ConfirmPayment(context.Background(), f.userID, intentID, result.OrderID)

	var notSucceeded *PaymentNotSucceededError
	require.ErrorAs(t, err, &notSucceeded)
	assert.Equal(t, "requires_payment_method", notSucceeded.Status)

	// order stays pending, nothing deducted
	assert.Equal(t, models.OrderPending, f.orders.orders[result.OrderID].Status)
	assert.Empty(t, f.products.deductions)
}

func TestWebhookSucceededIsIdempotent(t *testing.T) {
	product := trackedProduct("Product A", 5, 10)
	f := newFixture([]*models.Product{product}, []models.CartItem{
		{ProductID: product.ID, Quantity: 2, Price: 5},
	})
	result := confirmableOrder(t, f)
	intentID := f.orders.orders[result.OrderID].StripePaymentIntentID

	event := &payment.Event{Type: payment.EventIntentSucceeded, IntentID: intentID}
	require.NoError(t, f.service.HandleEvent(context.Background(), event))
	require.NoError(t, f.service.HandleEvent(context.Background(), event))

	order := f.orders.orders[result.OrderID]
	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, 2, f.products.deductions[product.ID], "stock deducted exactly once")
}

func TestWebhookThenConfirmDoesNotDoubleDeduct(t *testing.T) {
	product := trackedProduct("Product A", 5, 10)
	f := newFixture([]*models.Product{product}, []models.CartItem{
		{ProductID: product.ID, Quantity: 2, Price: 5},
	})
	result := confirmableOrder(t, f)
	intentID := f.orders.orders[result.OrderID].StripePaymentIntentID

	event := &payment.Event{Type: payment.EventIntentSucceeded, IntentID: intentID}
	require.NoError(t, f.service.HandleEvent(context.Background(), event))

	// the client's confirm call after the webhook already fulfilled
	_, err := f.service.ConfirmPayment(context.Background(), f.userID, intentID, result.OrderID)
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 2, f.products.deductions[product.ID])
}

func TestWebhookFailedCancelsOrder(t *testing.T) {
	product := trackedProduct("Product A", 5, 10)
	f := newFixture([]*models.Product{product}, []models.CartItem{
		{ProductID: product.ID, Quantity: 1, Price: 5},
	})
	result := confirmableOrder(t, f)
	intentID := f.orders.orders[result.OrderID].StripePaymentIntentID

	event := &payment.Event{Type: payment.EventIntentFailed, IntentID: intentID}
	require.NoError(t, f.service.HandleEvent(context.Background(), event))

	order := f.orders.orders[result.OrderID]
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Equal(t, models.PaymentFailed, order.PaymentStatus)
	assert.Empty(t, f.products.deductions)
}

func TestWebhookIgnoresUnknownEventsAndIntents(t *testing.T) {
	f := newFixture(nil, nil)

	assert.NoError(t, f.service.HandleEvent(context.Background(), &payment.Event{
		Type: "charge.dispute.created", IntentID: "pi_x",
	}))
	assert.NoError(t, f.service.HandleEvent(context.Background(), &payment.Event{
		Type: payment.EventIntentSucceeded, IntentID: "pi_unknown",
	}))
}

func TestFulfillmentToleratesPartialDeductionFailure(t *testing.T) {
	good := trackedProduct("Good", 5, 10)
	bad := trackedProduct("Bad", 3, 10)
	f := newFixture([]*models.Product{good, bad}, []models.CartItem{
		{ProductID: good.ID, Quantity: 1, Price: 5},
		{ProductID: bad.ID, Quantity: 1, Price: 3},
	})
	f.products.failDeduct[bad.ID] = true
	result := confirmableOrder(t, f)
	intentID := f.orders.orders[result.OrderID].StripePaymentIntentID

	order, err := f.service.ConfirmPayment(context.Background(), f.userID, intentID, result.OrderID)
	require.NoError(t, err, "a deduction failure must not fail a paid order")

	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.Equal(t, 1, f.products.deductions[good.ID])
	assert.Zero(t, f.products.deductions[bad.ID])
}
