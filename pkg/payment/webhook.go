package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

type EventKind int

const (
	// EventIgnored covers every verified event the shop does not act on.
	EventIgnored EventKind = iota
	EventCheckoutSessionCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventCheckoutSessionCompleted:
		return "checkout.session.completed"
	default:
		return "ignored"
	}
}

// Event is a verified provider notification. SessionID and CustomerEmail are
// only set for EventCheckoutSessionCompleted.
type Event struct {
	ID            string
	Type          string
	Kind          EventKind
	SessionID     string
	CustomerEmail string
}

type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader string) (*Event, error)
}

type StripeWebhookVerifier struct {
	secret string
}

func NewStripeWebhookVerifier(secret string) *StripeWebhookVerifier {
	return &StripeWebhookVerifier{secret: secret}
}

// Verify checks the Stripe-Signature header against the raw body. An empty
// secret always fails with ErrWebhookMisconfigured.
func (v *StripeWebhookVerifier) Verify(payload []byte, signatureHeader string) (*Event, error) {
	if v.secret == "" {
		return nil, ErrWebhookMisconfigured
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type), Kind: EventIgnored}
	if evt.Type != stripe.EventTypeCheckoutSessionCompleted {
		return out, nil
	}
	if evt.Data == nil {
		return nil, fmt.Errorf("%w: missing event data", ErrInvalidWebhookSignature)
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &s); err != nil || s.ID == "" {
		return nil, fmt.Errorf("%w: malformed checkout session", ErrInvalidWebhookSignature)
	}
	out.Kind = EventCheckoutSessionCompleted
	out.SessionID = s.ID
	if s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out, nil
}
