package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/artshop/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerProvider stops calling the provider after repeated failures and
// fails fast with ErrPaymentProvider until the breaker half-opens.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[*Session]
}

func NewBreakerProvider(next Provider, cfg config.BreakerConfig, logger *zap.Logger) *BreakerProvider {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
		Name:        "payment-provider",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

func (b *BreakerProvider) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	return b.execute(func() (*Session, error) {
		return b.next.CreateCheckoutSession(ctx, req)
	})
}

func (b *BreakerProvider) GetCheckoutSession(ctx context.Context, id string) (*Session, error) {
	return b.execute(func() (*Session, error) {
		return b.next.GetCheckoutSession(ctx, id)
	})
}

func (b *BreakerProvider) execute(call func() (*Session, error)) (*Session, error) {
	s, err := b.cb.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	return s, err
}
