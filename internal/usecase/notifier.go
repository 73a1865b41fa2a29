package usecase

import (
	"context"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// Notifier delivers signal alerts to subscribed devices. Implementations
// must be safe for concurrent use.
type Notifier interface {
	NotifySignal(ctx context.Context, s *domain.Signal) error
}

// NopNotifier discards alerts. Used in backtests and tests.
type NopNotifier struct{}

func (NopNotifier) NotifySignal(context.Context, *domain.Signal) error { return nil }
