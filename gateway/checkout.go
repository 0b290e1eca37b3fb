package gateway

import (
	"errors"
	"io"
	"net/http"

	"github.com/example/artshop/pkg/cart"
	"github.com/example/artshop/pkg/checkout"
	"github.com/example/artshop/pkg/payment"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 512 << 10

// @Summary Start checkout
// @Description Creates a hosted payment session for the session cart.
// @Tags checkout
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/checkout/session [post]
func (g *Gateway) createCheckoutSession(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	current, err := g.deps.Carts.Load(ctx, sid)
	if err != nil {
		g.internalError(c, "Failed to load cart", err)
		return
	}

	var userID *uint
	if id, ok := currentUser(c); ok {
		userID = &id
	}

	started, err := g.deps.Initiator.Start(ctx, current, userID)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty."})
		return
	case errors.Is(err, cart.ErrUnavailableProduct):
		c.JSON(http.StatusConflict, gin.H{"error": "A print in your cart is no longer available. Please remove it and try again."})
		return
	case errors.Is(err, payment.ErrPaymentProvider):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment service is unavailable, please try again later."})
		return
	case err != nil:
		g.internalError(c, "Failed to start checkout", err)
		return
	}

	if len(started.Cart) != len(current) {
		if err := g.deps.Carts.Save(ctx, sid, started.Cart); err != nil {
			g.logger.Warn("Failed to save pruned cart", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": started.SessionID,
		"url":        started.URL,
		"order_id":   started.OrderID,
	})
}

// @Summary Checkout return
// @Tags checkout
// @Produce json
// @Param session_id query string true "Checkout session ID"
// @Success 200 {object} map[string]string
// @Router /api/v1/checkout/success [get]
func (g *Gateway) checkoutSuccess(c *gin.Context) {
	providerSID := c.Query("session_id")
	if providerSID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	outcome, err := g.deps.Reconciler.ConfirmRedirect(c.Request.Context(), providerSID, sessionID(c))
	if errors.Is(err, payment.ErrPaymentProvider) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not verify your payment, please try again later."})
		return
	}
	if err != nil {
		g.internalError(c, "Failed to confirm checkout", err)
		return
	}

	body := gin.H{"status": outcome.String()}
	switch outcome {
	case checkout.Confirmed, checkout.AlreadyConfirmed:
		body["message"] = "Thank you for your purchase!"
	case checkout.Unpaid:
		body["message"] = "Your payment has not been completed yet."
	}
	c.JSON(http.StatusOK, body)
}

func (g *Gateway) checkoutCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "message": "Checkout was cancelled. Your cart is unchanged."})
}

// @Summary Stripe webhook
// @Tags checkout
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /api/v1/webhooks/stripe [post]
func (g *Gateway) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if len(payload) > maxWebhookBody {
		g.logger.Warn("Webhook body too large", zap.Int("limit", maxWebhookBody))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return
	}

	outcome, err := g.deps.Reconciler.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case errors.Is(err, payment.ErrWebhookMisconfigured), errors.Is(err, payment.ErrInvalidWebhookSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "webhook rejected"})
		return
	case err != nil:
		// Non-2xx makes the provider redeliver.
		g.internalError(c, "Failed to process webhook", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": outcome.String()})
}
