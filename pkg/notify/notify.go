// Package notify sends customer notifications through a single actor so that
// outbound mail is delivered one message at a time.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/artshop/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

var ErrDeliveryTimeout = errors.New("notification delivery timed out")

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type ConfirmationItem struct {
	Title    string
	Quantity uint
	Price    decimal.Decimal
}

// Confirmation describes a paid order. Email is the account address; the
// provider's customer email is used when it is empty.
type Confirmation struct {
	OrderID       uint
	Email         string
	CustomerEmail string
	Total         decimal.Decimal
	Items         []ConfirmationItem
}

func (c Confirmation) Recipient() string {
	if c.Email != "" {
		return c.Email
	}
	return c.CustomerEmail
}

const subjectOrderConfirmation = "Order Confirmation"

func renderConfirmation(c Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order #%d!\n\n", c.OrderID)
	fmt.Fprintf(&b, "Total: %s\n\n", money.Format(c.Total))
	b.WriteString("Items:\n")
	for _, item := range c.Items {
		fmt.Fprintf(&b, "- %d × %s (%s)\n", item.Quantity, item.Title, money.Format(item.Price))
	}
	b.WriteString("\nYour high-resolution files are available from your dashboard.\n")
	return b.String()
}

// messages handled by NotificationActor
type sendMail struct {
	To      string
	Subject string
	Body    string
	Timeout time.Duration
}

type mailResult struct {
	Err error
}

// NotificationActor delivers mail through its Mailer.
type NotificationActor struct {
	mailer Mailer
	logger *zap.Logger
}

func (a *NotificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *sendMail:
		sendCtx, cancel := context.WithTimeout(context.Background(), msg.Timeout)
		err := a.mailer.Send(sendCtx, msg.To, msg.Subject, msg.Body)
		cancel()
		if err != nil {
			a.logger.Error("Sending notification failed", zap.String("recipient", msg.To), zap.Error(err))
		} else {
			a.logger.Info("Notification sent", zap.String("recipient", msg.To), zap.String("subject", msg.Subject))
		}
		ctx.Respond(&mailResult{Err: err})

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopped:
		a.logger.Info("Notification actor stopped")
	}
}

type Dispatcher struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewDispatcher(mailer Mailer, logger *zap.Logger) (*Dispatcher, error) {
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return &NotificationActor{mailer: mailer, logger: logger.Named("notification-actor")}
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}
	return &Dispatcher{system: system, pid: pid, logger: logger}, nil
}

// OrderConfirmed sends the confirmation mail and waits for the delivery
// result. Orders without any recipient are skipped.
func (d *Dispatcher) OrderConfirmed(ctx context.Context, c Confirmation) error {
	to := c.Recipient()
	if to == "" {
		d.logger.Info("No recipient for order confirmation, skipping", zap.Uint("order_id", c.OrderID))
		return nil
	}

	timeout := defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return ErrDeliveryTimeout
		}
	}

	res, err := d.system.Root.RequestFuture(d.pid, &sendMail{
		To:      to,
		Subject: subjectOrderConfirmation,
		Body:    renderConfirmation(c),
		Timeout: timeout,
	}, timeout).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryTimeout, err)
	}

	result, ok := res.(*mailResult)
	if !ok {
		return fmt.Errorf("unexpected notification reply %T", res)
	}
	return result.Err
}

func (d *Dispatcher) Stop() {
	if err := d.system.Root.StopFuture(d.pid).Wait(); err != nil {
		d.logger.Warn("Notification actor did not stop cleanly", zap.Error(err))
	}
}
