package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/infrastructure/fcm"
	"github.com/herberelias/cripto-signals/internal/metrics"
	"github.com/herberelias/cripto-signals/internal/repository"
)

// FCMNotifier pushes signal alerts to every registered device.
type FCMNotifier struct {
	client *fcm.Client
	tokens *repository.TokenRepository
	log    zerolog.Logger
}

func NewFCMNotifier(client *fcm.Client, tokens *repository.TokenRepository, log zerolog.Logger) *FCMNotifier {
	return &FCMNotifier{
		client: client,
		tokens: tokens,
		log:    log.With().Str("component", "notifier").Logger(),
	}
}

func (n *FCMNotifier) NotifySignal(ctx context.Context, s *domain.Signal) error {
	if !n.client.IsEnabled() {
		return nil
	}
	tokens := n.tokens.GetAllTokens()
	if len(tokens) == 0 {
		return nil
	}

	title := fmt.Sprintf("%s signal: %s", s.Direction, s.Symbol)
	body := fmt.Sprintf("Entry %.2f | SL %.2f | TP1 %.2f | probability %d%%",
		s.EntryPrice, s.StopLoss, s.TakeProfit1, s.Probability)
	data := map[string]string{
		"signalId":  s.ID,
		"direction": string(s.Direction),
		"entry":     fmt.Sprintf("%.2f", s.EntryPrice),
		"source":    string(s.Source),
	}

	if err := n.client.SendMulticast(ctx, tokens, title, body, data); err != nil {
		return err
	}
	metrics.PushesSent.Inc()
	n.log.Debug().Str("signal_id", s.ID).Int("devices", len(tokens)).Msg("signal alert pushed")
	return nil
}
