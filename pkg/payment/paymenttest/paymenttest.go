// Package paymenttest provides an in-memory payment provider and webhook
// signing for tests.
package paymenttest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/example/artshop/pkg/payment"
)

// SignPayload builds a Stripe-Signature header for payload.
func SignPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// CheckoutCompletedPayload is a minimal checkout.session.completed event.
func CheckoutCompletedPayload(sessionID, email string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_%s",
  "object": "event",
  "api_version": "2023-10-16",
  "type": "checkout.session.completed",
  "data": {"object": {"id": %q, "object": "checkout.session", "payment_status": "paid", "customer_details": {"email": %q}}}
}`, sessionID, sessionID, email))
}

// EventPayload is a verified event of an arbitrary type with an empty object.
func EventPayload(eventType string) []byte {
	return []byte(fmt.Sprintf(`{"id": "evt_x", "object": "event", "type": %q, "data": {"object": {}}}`, eventType))
}

// Provider records created sessions and answers lookups from Sessions.
type Provider struct {
	mu       sync.Mutex
	seq      int
	Sessions map[string]*payment.Session
	Requests []payment.SessionRequest
	Err      error
}

func NewProvider() *Provider {
	return &Provider{Sessions: map[string]*payment.Session{}}
}

func (p *Provider) CreateCheckoutSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	p.seq++
	s := &payment.Session{
		ID:            fmt.Sprintf("cs_test_%d", p.seq),
		URL:           fmt.Sprintf("https://checkout.example.com/pay/cs_test_%d", p.seq),
		PaymentStatus: "unpaid",
	}
	p.Sessions[s.ID] = s
	p.Requests = append(p.Requests, req)

	out := *s
	return &out, nil
}

func (p *Provider) GetCheckoutSession(_ context.Context, id string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	s, ok := p.Sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such session %s", payment.ErrPaymentProvider, id)
	}
	out := *s
	return &out, nil
}

// MarkPaid flips a session to paid as if the customer completed payment.
func (p *Provider) MarkPaid(id, email string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.Sessions[id]; ok {
		s.PaymentStatus = payment.PaymentStatusPaid
		s.CustomerEmail = email
	}
}
