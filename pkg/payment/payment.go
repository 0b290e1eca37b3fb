// Package payment talks to the hosted checkout provider.
package payment

import (
	"context"
	"errors"
)

var (
	ErrPaymentProvider         = errors.New("payment provider unavailable")
	ErrWebhookMisconfigured    = errors.New("webhook secret is not configured")
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature or payload")
)

const PaymentStatusPaid = "paid"

type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64 // minor units
	Quantity    int64
}

type SessionRequest struct {
	LineItems  []LineItem
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	CustomerEmail string
}

func (s *Session) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// Provider creates and retrieves hosted checkout sessions. Implementations
// wrap every failure in ErrPaymentProvider.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetCheckoutSession(ctx context.Context, id string) (*Session, error)
}
