package payment

import (
	"context"
	"fmt"
)

// Intent statuses as reported by the gateway.
const IntentStatusSucceeded = "succeeded"

// Webhook event types the checkout flow reacts to. Anything else is
// acknowledged and ignored.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// Intent mirrors the gateway-side record of an in-progress charge attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	ChargeID     string
}

// Event is a verified webhook notification.
type Event struct {
	Type     string
	IntentID string
}

// Gateway is the payment provider seen from the checkout orchestrator.
type Gateway interface {
	// CreateIntent registers a charge attempt for amountMinor minor units.
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	// GetIntent fetches the current state of an intent.
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

// WebhookVerifier checks a webhook payload against the shared signing secret
// and parses it. Verification failure must fail closed.
type WebhookVerifier interface {
	VerifyAndParse(payload []byte, signature string) (*Event, error)
}

// SignatureVerificationError reports a webhook whose signature did not match
// the shared secret.
type SignatureVerificationError struct {
	Err error
}

func (e *SignatureVerificationError) Error() string {
	return fmt.Sprintf("webhook signature verification failed: %v", e.Err)
}

func (e *SignatureVerificationError) Unwrap() error { return e.Err }
