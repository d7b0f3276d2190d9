package checkout

import (
	"context"
	"errors"
	"log"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"koselimart/internal/models"
	"koselimart/internal/payment"
	"koselimart/internal/store"
)

const currency = "usd"

// Service coordinates cart validation, order creation, payment confirmation,
// stock deduction and cart clearing.
type Service struct {
	products store.Products
	carts    store.Carts
	orders   store.Orders
	gateway  payment.Gateway
	txn      store.TxnRunner
}

func NewService(products store.Products, carts store.Carts, orders store.Orders, gateway payment.Gateway, txn store.TxnRunner) *Service {
	return &Service{
		products: products,
		carts:    carts,
		orders:   orders,
		gateway:  gateway,
		txn:      txn,
	}
}

type PaymentIntentRequest struct {
	ShippingAddress models.OrderAddress
	BillingAddress  models.OrderAddress
	ShippingCost    float64
	TaxAmount       float64
}

type PaymentIntentResult struct {
	ClientSecret string
	OrderID      primitive.ObjectID
	OrderNumber  string
	Total        float64
}

// CreatePaymentIntent revalidates the caller's cart against current product
// state, registers a gateway intent for the cart total and persists a
// pending order snapshotting the cart lines. If any line fails validation
// the whole operation fails: no order is written and the gateway is never
// called. Stock is only checked here, not reserved.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID primitive.ObjectID, req PaymentIntentRequest) (*PaymentIntentResult, error) {
	if req.ShippingCost < 0 || req.TaxAmount < 0 {
		return nil, &ValidationError{Message: "shipping cost and tax amount must not be negative"}
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var unavailable []UnavailableProduct
	items := make([]models.OrderItem, 0, len(cart.Items))
	subtotal := 0.0

	for _, line := range cart.Items {
		product, err := s.products.Get(ctx, line.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			unavailable = append(unavailable, UnavailableProduct{
				ProductID: line.ProductID,
				Name:      "Unknown Product",
				Reason:    ReasonNoLongerAvailable,
			})
			continue
		}
		if err != nil {
			return nil, err
		}

		if !product.Available() {
			unavailable = append(unavailable, UnavailableProduct{
				ProductID: line.ProductID,
				Name:      product.Name,
				Reason:    ReasonNoLongerAvailable,
			})
			continue
		}

		if !product.HasStock(line.Quantity) {
			available := product.Stock.Quantity
			unavailable = append(unavailable, UnavailableProduct{
				ProductID:      line.ProductID,
				Name:           product.Name,
				Reason:         ReasonInsufficientStock,
				AvailableStock: &available,
			})
			continue
		}

		// Subtotal uses the cart's price snapshot, not the live price, so a
		// price change between add-to-cart and checkout never surprises the
		// buyer.
		subtotal += line.Price * float64(line.Quantity)
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Name:      product.Name,
			Image:     product.PrimaryImage(),
		})
	}

	if len(unavailable) > 0 {
		return nil, &UnavailableProductsError{Products: unavailable}
	}

	total := subtotal + req.ShippingCost + req.TaxAmount
	amountMinor := int64(math.Round(total * 100))

	intent, err := s.gateway.CreateIntent(ctx, amountMinor, currency, map[string]string{
		"userId": userID.Hex(),
		"cartId": cart.ID.Hex(),
	})
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:           orderNumber,
		UserID:                userID,
		Items:                 items,
		ShippingAddress:       req.ShippingAddress,
		BillingAddress:        req.BillingAddress,
		Subtotal:              subtotal,
		ShippingCost:          req.ShippingCost,
		TaxAmount:             req.TaxAmount,
		Total:                 total,
		PaymentMethod:         "stripe",
		PaymentStatus:         models.PaymentPending,
		StripePaymentIntentID: intent.ID,
		Status:                models.OrderPending,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("[CHECKOUT] [INFO] pending order %s created for intent %s", order.OrderNumber, intent.ID)
	return &PaymentIntentResult{
		ClientSecret: intent.ClientSecret,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Total:        total,
	}, nil
}

// ConfirmPayment finalizes a pending order after the buyer completed payment
// with the gateway: it verifies the intent succeeded, then runs fulfillment.
// The order must exist, belong to the caller, reference intentID and still
// be pending; anything else is ErrOrderNotFound.
func (s *Service) ConfirmPayment(ctx context.Context, userID primitive.ObjectID, intentID string, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindPending(ctx, orderID, userID, intentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != payment.IntentStatusSucceeded {
		return nil, &PaymentNotSucceededError{Status: intent.Status}
	}

	if err := s.fulfill(ctx, order, intent.ChargeID); err != nil {
		return nil, err
	}

	order.Status = models.OrderConfirmed
	order.PaymentStatus = models.PaymentPaid
	order.StripeChargeID = intent.ChargeID
	order.StockDeducted = true
	return order, nil
}

// HandleEvent applies a verified webhook notification. Success events run
// the same fulfillment as ConfirmPayment, so whichever path fires first
// deducts stock; the other becomes a no-op. Unknown event types are
// acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *payment.Event) error {
	switch event.Type {
	case payment.EventIntentSucceeded:
		order, err := s.orders.FindByPaymentIntent(ctx, event.IntentID)
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[CHECKOUT] [ERROR] no order for succeeded intent %s", event.IntentID)
			return nil
		}
		if err != nil {
			return err
		}
		if order.Status != models.OrderPending {
			return nil
		}
		return s.fulfill(ctx, order, "")

	case payment.EventIntentFailed:
		log.Printf("[CHECKOUT] [INFO] payment failed for intent %s", event.IntentID)
		return s.orders.MarkPaymentFailed(ctx, event.IntentID)

	default:
		log.Printf("[CHECKOUT] [INFO] ignoring webhook event type %s", event.Type)
		return nil
	}
}

// fulfill marks the order paid, deducts stock and clears the cart inside one
// transaction. The conditional MarkPaid guard makes the whole routine
// idempotent: only the first caller performs side effects.
func (s *Service) fulfill(ctx context.Context, order *models.Order, chargeID string) error {
	return s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		applied, err := s.orders.MarkPaid(ctx, order.ID, chargeID)
		if err != nil {
			return err
		}
		if !applied {
			// the other confirmation path got here first
			return nil
		}

		for _, item := range order.Items {
			if err := s.products.DeductStock(ctx, item.ProductID, item.Quantity); err != nil {
				// The order is already paid; an inventory desync is
				// preferable to refusing a paid order.
				log.Printf("[CHECKOUT] [ERROR] stock deduction failed for product %s: %v", item.ProductID.Hex(), err)
			}
		}

		return s.carts.Clear(ctx, order.UserID)
	})
}
