package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"koselimart/internal/checkout"
	"koselimart/internal/models"
	"koselimart/internal/payment"
)

type orderAddressRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

func (r orderAddressRequest) toModel() models.OrderAddress {
	return models.OrderAddress(r)
}

type createPaymentIntentRequest struct {
	ShippingAddress *orderAddressRequest `json:"shippingAddress" binding:"required"`
	BillingAddress  *orderAddressRequest `json:"billingAddress" binding:"required"`
	ShippingCost    float64              `json:"shippingCost" binding:"gte=0"`
	TaxAmount       float64              `json:"taxAmount" binding:"gte=0"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	OrderID         string `json:"orderId" binding:"required"`
}

// CreatePaymentIntent validates the caller's cart, creates a pending order
// and a gateway payment intent. POST /api/stripe/create-payment-intent.
func CreatePaymentIntent(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/stripe/create-payment-intent"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		var req createPaymentIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		result, err := svc.CreatePaymentIntent(c.Request.Context(), userID, checkout.PaymentIntentRequest{
			ShippingAddress: req.ShippingAddress.toModel(),
			BillingAddress:  req.BillingAddress.toModel(),
			ShippingCost:    req.ShippingCost,
			TaxAmount:       req.TaxAmount,
		})
		if err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"clientSecret": result.ClientSecret,
			"orderId":      result.OrderID.Hex(),
			"orderNumber":  result.OrderNumber,
			"total":        result.Total,
		})
	}
}

// ConfirmPayment finalizes the order, deducts stock and clears the cart.
// POST /api/stripe/confirm-payment.
func ConfirmPayment(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/stripe/confirm-payment"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		var req confirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		order, err := svc.ConfirmPayment(c.Request.Context(), userID, req.PaymentIntentID, orderID)
		if err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "payment confirmed",
			"order":   order,
		})
	}
}

// StripeWebhook handles gateway-pushed status updates. The raw body is
// required for signature verification; a bad signature fails closed with a
// client error. POST /api/stripe/webhook.
func StripeWebhook(svc *checkout.Service, verifier payment.WebhookVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/stripe/webhook"
		defer handlePanic(c, route)

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "could not read body")
			return
		}

		event, err := verifier.VerifyAndParse(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			var sigErr *payment.SignatureVerificationError
			if errors.As(err, &sigErr) {
				respondWithError(c, http.StatusBadRequest, route, "signature verification failed")
				return
			}
			respondWithError(c, http.StatusBadRequest, route, "invalid webhook payload")
			return
		}

		if err := svc.HandleEvent(c.Request.Context(), event); err != nil {
			// The gateway retries on non-2xx; surface storage failures so the
			// event is redelivered.
			log.Printf("[%s] event handling failed: %v", route, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "event handling failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// GetPaymentMethods is a stub kept for the storefront's saved-cards screen.
// GET /api/stripe/payment-methods.
func GetPaymentMethods() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"paymentMethods": []gin.H{}})
	}
}

func respondCheckoutError(c *gin.Context, route string, err error) {
	if errors.Is(err, checkout.ErrEmptyCart) {
		respondWithError(c, http.StatusBadRequest, route, "cart is empty")
		return
	}
	if errors.Is(err, checkout.ErrOrderNotFound) {
		respondWithError(c, http.StatusNotFound, route, "order not found or already processed")
		return
	}

	var validation *checkout.ValidationError
	if errors.As(err, &validation) {
		respondWithError(c, http.StatusBadRequest, route, validation.Message)
		return
	}

	var unavailable *checkout.UnavailableProductsError
	if errors.As(err, &unavailable) {
		log.Printf("[%s] returning error 400: unavailable products", route)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":               "some products are no longer available",
			"unavailableProducts": unavailable.Products,
		})
		return
	}

	var notSucceeded *checkout.PaymentNotSucceededError
	if errors.As(err, &notSucceeded) {
		log.Printf("[%s] returning error 400: payment not succeeded (%s)", route, notSucceeded.Status)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "payment not successful",
			"status": notSucceeded.Status,
		})
		return
	}

	log.Printf("[%s] unexpected error: %v", route, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
