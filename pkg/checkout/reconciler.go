package checkout

import (
	"context"
	"errors"
	"strconv"

	"github.com/example/artshop/pkg/cart"
	"github.com/example/artshop/pkg/models"
	"github.com/example/artshop/pkg/notify"
	"github.com/example/artshop/pkg/payment"
	"github.com/example/artshop/pkg/repository"
	"go.uber.org/zap"
)

type Outcome int

const (
	// Confirmed means this call moved the order from pending to paid.
	Confirmed Outcome = iota
	AlreadyConfirmed
	NoOrder
	Unpaid
	// Ignored is returned for verified webhook events other than a completed
	// checkout.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case AlreadyConfirmed:
		return "already_confirmed"
	case NoOrder:
		return "no_order"
	case Unpaid:
		return "unpaid"
	case Ignored:
		return "ignored"
	}
	return "unknown"
}

const (
	SourceRedirect = "redirect"
	SourceWebhook  = "webhook"
)

type Reconciler struct {
	orders   OrderLedger
	provider payment.Provider
	verifier payment.WebhookVerifier
	carts    cart.Store
	notifier Notifier
	audit    AuditRecorder
	metrics  Metrics
	logger   *zap.Logger
}

func NewReconciler(
	orders OrderLedger,
	provider payment.Provider,
	verifier payment.WebhookVerifier,
	carts cart.Store,
	notifier Notifier,
	audit AuditRecorder,
	metrics Metrics,
	logger *zap.Logger,
) *Reconciler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Reconciler{
		orders:   orders,
		provider: provider,
		verifier: verifier,
		carts:    carts,
		notifier: notifier,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
	}
}

// ConfirmRedirect handles the customer's return from the hosted payment page.
// The browser cart is cleared only when this call performed the transition.
func (r *Reconciler) ConfirmRedirect(ctx context.Context, providerSessionID, cartSessionID string) (Outcome, error) {
	session, err := r.provider.GetCheckoutSession(ctx, providerSessionID)
	if err != nil {
		r.logger.Error("Failed to retrieve checkout session",
			zap.String("session_id", providerSessionID),
			zap.Error(err))
		return 0, err
	}
	if !session.Paid() {
		r.logger.Info("Checkout session not paid yet",
			zap.String("session_id", providerSessionID),
			zap.String("payment_status", session.PaymentStatus))
		return Unpaid, nil
	}

	outcome, err := r.confirm(ctx, providerSessionID, session.CustomerEmail, SourceRedirect)
	if err != nil {
		return 0, err
	}
	if outcome == Confirmed && cartSessionID != "" {
		if err := r.carts.Clear(ctx, cartSessionID); err != nil {
			r.logger.Warn("Failed to clear cart after payment", zap.Error(err))
		}
	}
	return outcome, nil
}

// HandleWebhook verifies and applies a provider event. Returned errors wrap
// payment.ErrWebhookMisconfigured or payment.ErrInvalidWebhookSignature for
// rejected deliveries.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (Outcome, error) {
	evt, err := r.verifier.Verify(payload, signatureHeader)
	if err != nil {
		reason := "invalid_signature"
		if errors.Is(err, payment.ErrWebhookMisconfigured) {
			reason = "misconfigured"
		}
		r.logger.Warn("Webhook rejected", zap.String("reason", reason), zap.Error(err))
		r.metrics.WebhookRejected(reason)
		if aerr := r.audit.Record(ctx, repository.AuditWebhookRejected, "", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		}); aerr != nil {
			r.logger.Warn("Failed to write audit log", zap.Error(aerr))
		}
		return 0, err
	}

	switch evt.Kind {
	case payment.EventCheckoutSessionCompleted:
		return r.confirm(ctx, evt.SessionID, evt.CustomerEmail, SourceWebhook)
	default:
		r.logger.Debug("Ignoring webhook event", zap.String("event_id", evt.ID), zap.String("type", evt.Type))
		return Ignored, nil
	}
}

// confirm is the single place where an order becomes paid. Side effects run
// only for the caller that performed the transition.
func (r *Reconciler) confirm(ctx context.Context, sessionID, customerEmail, source string) (Outcome, error) {
	order, transitioned, err := r.orders.MarkPaid(ctx, sessionID)
	if err != nil {
		r.logger.Error("Failed to confirm order", zap.String("session_id", sessionID), zap.Error(err))
		return 0, err
	}
	if order == nil {
		r.logger.Warn("No order for paid session", zap.String("session_id", sessionID), zap.String("source", source))
		return NoOrder, nil
	}
	if !transitioned {
		r.logger.Info("Order already confirmed", zap.Uint("order_id", order.ID), zap.String("source", source))
		return AlreadyConfirmed, nil
	}

	r.logger.Info("Order confirmed", zap.Uint("order_id", order.ID), zap.String("source", source))
	r.metrics.OrderConfirmed(source)

	if err := r.notifier.OrderConfirmed(ctx, confirmationFor(order, customerEmail)); err != nil {
		r.logger.Error("Failed to send order confirmation", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	orderID := strconv.FormatUint(uint64(order.ID), 10)
	if err := r.audit.Record(ctx, repository.AuditOrderConfirmed, orderID, map[string]interface{}{
		"session_id": sessionID,
		"source":     source,
	}); err != nil {
		r.logger.Warn("Failed to write audit log", zap.Error(err))
	}
	return Confirmed, nil
}

func confirmationFor(order *models.Order, customerEmail string) notify.Confirmation {
	c := notify.Confirmation{
		OrderID:       order.ID,
		CustomerEmail: customerEmail,
		Total:         order.TotalAmount,
	}
	if order.User != nil {
		c.Email = order.User.Email
	}
	for _, item := range order.Items {
		title := "Removed print"
		if item.ArtPrint != nil {
			title = item.ArtPrint.Title
		}
		c.Items = append(c.Items, notify.ConfirmationItem{
			Title:    title,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return c
}
