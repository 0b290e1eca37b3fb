// Package checkout turns a session cart into a paid order. The Initiator
// opens a hosted payment session and records a pending order; the Reconciler
// confirms that order exactly once, whichever of the redirect or the webhook
// arrives first.
package checkout

import (
	"context"
	"errors"

	"github.com/example/artshop/pkg/models"
	"github.com/example/artshop/pkg/notify"
)

var (
	ErrEmptyCart       = errors.New("your cart is empty")
	ErrAccessDenied    = errors.New("you have not purchased this print")
	ErrPrintNotFound   = errors.New("print not found")
	ErrFileUnavailable = errors.New("print file is unavailable")
)

type Catalog interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*models.ArtPrint, error)
	GetByID(ctx context.Context, id uint) (*models.ArtPrint, error)
}

type OrderLedger interface {
	CreatePending(ctx context.Context, order *models.Order) error
	MarkPaid(ctx context.Context, sessionID string) (*models.Order, bool, error)
}

type Entitlements interface {
	HasEntitlement(ctx context.Context, userID, printID uint) (bool, error)
}

type Notifier interface {
	OrderConfirmed(ctx context.Context, c notify.Confirmation) error
}

type AuditRecorder interface {
	Record(ctx context.Context, action, entityID string, data map[string]interface{}) error
}

// Metrics is satisfied by *metrics.Metrics.
type Metrics interface {
	OrderConfirmed(source string)
	WebhookRejected(reason string)
}

type nopMetrics struct{}

func (nopMetrics) OrderConfirmed(string)  {}
func (nopMetrics) WebhookRejected(string) {}
