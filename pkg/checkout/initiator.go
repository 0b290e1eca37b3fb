package checkout

import (
	"context"
	"fmt"
	"strconv"

	"github.com/example/artshop/pkg/cart"
	"github.com/example/artshop/pkg/models"
	"github.com/example/artshop/pkg/money"
	"github.com/example/artshop/pkg/payment"
	"github.com/example/artshop/pkg/repository"
	"go.uber.org/zap"
)

const maxLineDescription = 100

type InitiatorConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

type Initiator struct {
	catalog  Catalog
	orders   OrderLedger
	provider payment.Provider
	audit    AuditRecorder
	cfg      InitiatorConfig
	logger   *zap.Logger
}

func NewInitiator(catalog Catalog, orders OrderLedger, provider payment.Provider, audit AuditRecorder, cfg InitiatorConfig, logger *zap.Logger) *Initiator {
	return &Initiator{
		catalog:  catalog,
		orders:   orders,
		provider: provider,
		audit:    audit,
		cfg:      cfg,
		logger:   logger,
	}
}

type Started struct {
	SessionID string
	URL       string
	OrderID   uint
	// Cart is the input cart minus entries whose print no longer exists.
	Cart cart.Cart
}

// Start opens a payment session for c and records a pending order bound to
// it. userID is nil for guest checkout.
func (i *Initiator) Start(ctx context.Context, c cart.Cart, userID *uint) (*Started, error) {
	prints, err := i.catalog.FindByIDs(ctx, c.IDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart prints: %w", err)
	}

	c, pruned := cart.ReconcileStale(c, func(id uint) bool {
		_, ok := prints[id]
		return ok
	})
	if len(pruned) > 0 {
		i.logger.Info("Pruned stale cart entries", zap.Uints("print_ids", pruned))
	}
	if len(c) == 0 {
		return nil, ErrEmptyCart
	}
	for _, id := range c.IDs() {
		if p := prints[id]; !p.IsAvailable {
			i.logger.Info("Checkout blocked by unavailable print", zap.Uint("print_id", id))
			return nil, fmt.Errorf("%w: %s", cart.ErrUnavailableProduct, p.Title)
		}
	}

	total := cart.Total(c)
	req := payment.SessionRequest{
		Currency:   i.cfg.Currency,
		SuccessURL: i.cfg.SuccessURL,
		CancelURL:  i.cfg.CancelURL,
		Metadata:   map[string]string{"cart_total": total.StringFixed(2)},
	}
	order := &models.Order{UserID: userID, TotalAmount: total}

	for _, id := range c.IDs() {
		entry := c[id]
		p := prints[id]
		req.LineItems = append(req.LineItems, payment.LineItem{
			Name:        p.Title,
			Description: truncate(p.Description, maxLineDescription),
			UnitAmount:  money.ToMinorUnits(entry.Price),
			Quantity:    int64(entry.Quantity),
		})

		printID := id
		order.Items = append(order.Items, models.OrderItem{
			ArtPrintID: &printID,
			Quantity:   uint(entry.Quantity),
			Price:      entry.Price,
		})
	}

	session, err := i.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		i.logger.Error("Failed to create checkout session", zap.Error(err))
		return nil, err
	}

	order.StripeSessionID = session.ID
	if err := i.orders.CreatePending(ctx, order); err != nil {
		i.logger.Error("Order not persisted, payment session is orphaned",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return nil, err
	}

	i.logger.Info("Checkout session created",
		zap.Uint("order_id", order.ID),
		zap.String("session_id", session.ID),
		zap.String("total", total.StringFixed(2)))

	orderID := strconv.FormatUint(uint64(order.ID), 10)
	if err := i.audit.Record(ctx, repository.AuditOrderCreated, orderID, map[string]interface{}{
		"session_id": session.ID,
		"total":      total.StringFixed(2),
		"items":      len(order.Items),
	}); err != nil {
		i.logger.Warn("Failed to write audit log", zap.Error(err))
	}

	return &Started{SessionID: session.ID, URL: session.URL, OrderID: order.ID, Cart: c}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
