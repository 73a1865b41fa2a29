package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/metrics"
)

const (
	// invalidationPct is the adverse move from entry, in percent, beyond
	// which an active signal is considered structurally broken.
	invalidationPct = 5.0

	// breakevenProgress is the fraction of the way to TP1 at which the
	// stop moves to the entry price.
	breakevenProgress = 0.5

	trailingATRMult = 1.5
)

// Partial close percentages per take-profit tier.
const (
	tp1ClosedPercent = 30
	tp2ClosedPercent = 90
	fullClosed       = 100
)

// LifecycleService walks every open signal through validation, breakeven,
// trailing stop and outcome verification. MonitorActiveSignals never runs
// concurrently with itself; the mutex makes overlapping scheduler ticks
// queue instead of race.
type LifecycleService struct {
	signals     domain.SignalRepository
	events      domain.EventRepository
	prices      domain.PriceProvider
	calibration *CalibrationService
	symbol      string
	log         zerolog.Logger
	mu          sync.Mutex
}

func NewLifecycleService(
	signals domain.SignalRepository,
	events domain.EventRepository,
	prices domain.PriceProvider,
	calibration *CalibrationService,
	symbol string,
	log zerolog.Logger,
) *LifecycleService {
	return &LifecycleService{
		signals:     signals,
		events:      events,
		prices:      prices,
		calibration: calibration,
		symbol:      symbol,
		log:         log.With().Str("component", "lifecycle").Logger(),
	}
}

// MonitorActiveSignals runs one monitoring pass over every open signal.
// One signal failing never blocks the rest of the batch.
func (l *LifecycleService) MonitorActiveSignals(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	active, err := l.signals.GetActiveSignals(ctx)
	if err != nil {
		return fmt.Errorf("load active signals: %w", err)
	}
	metrics.ActiveSignals.Set(float64(len(active)))
	if len(active) == 0 {
		return nil
	}

	price, err := l.prices.Price(ctx, l.symbol)
	if err != nil {
		return fmt.Errorf("fetch price: %w", err)
	}

	for _, s := range active {
		if err := l.ProcessSignal(ctx, s, price); err != nil {
			l.log.Error().Err(err).Str("signal_id", s.ID).Msg("signal monitoring failed")
		}
	}
	return nil
}

// ProcessSignal runs the per-signal sub-tasks in order. Each sub-task's
// error is captured in isolation so a failed stop update still lets
// verification run.
func (l *LifecycleService) ProcessSignal(ctx context.Context, s *domain.Signal, price float64) error {
	if s.State.Terminal() {
		return nil
	}

	if s.State == domain.StateActive {
		invalidated, err := l.checkValidation(ctx, s, price)
		if err != nil {
			l.log.Warn().Err(err).Str("signal_id", s.ID).Msg("validation step failed")
		}
		if invalidated {
			return nil
		}
	}

	if err := l.applyBreakeven(ctx, s, price); err != nil {
		l.log.Warn().Err(err).Str("signal_id", s.ID).Msg("breakeven step failed")
	}
	if err := l.applyTrailingStop(ctx, s, price); err != nil {
		l.log.Warn().Err(err).Str("signal_id", s.ID).Msg("trailing stop step failed")
	}

	return l.verify(ctx, s, price, time.Now().UTC())
}

// checkValidation invalidates an active signal whose adverse move from
// entry exceeds the threshold while the stop has not been touched. A price
// already through the stop is left for verification to record as the
// authoritative stop-loss outcome.
func (l *LifecycleService) checkValidation(ctx context.Context, s *domain.Signal, price float64) (bool, error) {
	if s.EntryPrice <= 0 {
		return false, nil
	}

	var adversePct float64
	if s.Direction == domain.Long {
		adversePct = (s.EntryPrice - price) / s.EntryPrice * 100
	} else {
		adversePct = (price - s.EntryPrice) / s.EntryPrice * 100
	}
	if adversePct <= invalidationPct || stopCrossed(s, price) {
		return false, nil
	}

	s.State = domain.StateInvalidated
	if err := l.signals.UpdateSignal(ctx, s); err != nil {
		return false, fmt.Errorf("invalidate signal: %w", err)
	}
	l.appendEvent(ctx, s, domain.EventInvalidated, fmt.Sprintf("adverse move %.2f%% from entry at %.2f", adversePct, price))
	metrics.SignalsClosed.WithLabelValues(string(domain.StateInvalidated)).Inc()
	l.log.Info().Str("signal_id", s.ID).Float64("price", price).Msg("signal invalidated")
	return true, nil
}

// applyBreakeven moves the stop to entry once price has covered half the
// distance to TP1, and only when that improves the stop.
func (l *LifecycleService) applyBreakeven(ctx context.Context, s *domain.Signal, price float64) error {
	span := s.TakeProfit1 - s.EntryPrice
	if span == 0 {
		return nil
	}

	progress := (price - s.EntryPrice) / span
	if progress < breakevenProgress {
		return nil
	}
	if !improvesStop(s, s.EntryPrice) {
		return nil
	}

	s.StopLoss = s.EntryPrice
	if err := l.signals.UpdateSignal(ctx, s); err != nil {
		return fmt.Errorf("breakeven update: %w", err)
	}
	l.appendEvent(ctx, s, domain.EventBreakeven, fmt.Sprintf("stop moved to entry %.2f", s.EntryPrice))
	return nil
}

// applyTrailingStop tightens the stop behind price once TP1 has been
// reached. The ATR proxy is half the entry-to-TP1 distance, so trailing
// needs no candle fetch.
func (l *LifecycleService) applyTrailingStop(ctx context.Context, s *domain.Signal, price float64) error {
	if s.ClosedPercent < tp1ClosedPercent && !tierReached(s, price, s.TakeProfit1) {
		return nil
	}

	atrProxy := math.Abs(s.TakeProfit1-s.EntryPrice) / 2
	if atrProxy == 0 {
		return nil
	}

	var proposal float64
	if s.Direction == domain.Long {
		proposal = price - trailingATRMult*atrProxy
		if proposal >= price {
			return nil
		}
	} else {
		proposal = price + trailingATRMult*atrProxy
		if proposal <= price {
			return nil
		}
	}
	if !improvesStop(s, proposal) {
		return nil
	}

	old := s.StopLoss
	s.StopLoss = proposal
	if err := l.signals.UpdateSignal(ctx, s); err != nil {
		s.StopLoss = old
		return fmt.Errorf("trailing stop update: %w", err)
	}
	l.appendEvent(ctx, s, domain.EventTrailingStop, fmt.Sprintf("stop %.2f -> %.2f at price %.2f", old, proposal, price))
	return nil
}

// verify checks the take-profit tiers, the stop and expiry, in that
// priority order. The first closing condition fixes the outcome; later
// passes can only raise the closed percentage and finalize the state.
func (l *LifecycleService) verify(ctx context.Context, s *domain.Signal, price float64, now time.Time) error {
	switch {
	case tierReached(s, price, s.TakeProfit3):
		return l.closeFull(ctx, s, price, domain.OutcomeWin, domain.CloseTakeProfit, "TP3 reached", now)

	case tierReached(s, price, s.TakeProfit2):
		return l.partialClose(ctx, s, price, tp2ClosedPercent, "TP2 reached", now)

	case tierReached(s, price, s.TakeProfit1):
		return l.partialClose(ctx, s, price, tp1ClosedPercent, "TP1 reached", now)

	case stopCrossed(s, price):
		return l.closeFull(ctx, s, price, domain.OutcomeLoss, domain.CloseStopLoss, "stop loss hit", now)

	case now.After(s.ExpiresAt):
		return l.expire(ctx, s, price, now)
	}
	return nil
}

// partialClose records the win outcome on the first tier touch and raises
// ClosedPercent as later tiers fill. The signal stays open for monitoring.
func (l *LifecycleService) partialClose(ctx context.Context, s *domain.Signal, price float64, percent float64, detail string, now time.Time) error {
	if s.ClosedPercent >= percent {
		return nil
	}

	if err := l.recordOutcome(ctx, s, domain.OutcomeWin, domain.CloseTakeProfit, price, now); err != nil {
		return err
	}

	s.ClosedPercent = percent
	s.State = domain.StatePartiallyClosed
	if err := l.signals.UpdateSignal(ctx, s); err != nil {
		return fmt.Errorf("partial close update: %w", err)
	}
	l.appendEvent(ctx, s, domain.EventPartialClose, fmt.Sprintf("%s, %.0f%% closed at %.2f", detail, percent, price))
	l.log.Info().Str("signal_id", s.ID).Float64("percent", percent).Msg("signal partially closed")
	return nil
}

// closeFull resolves the remaining position. For signals that already
// banked a partial win the original outcome stands; the terminal state
// follows the recorded result, not the closing condition.
func (l *LifecycleService) closeFull(ctx context.Context, s *domain.Signal, price float64, result domain.OutcomeResult, reason domain.CloseReason, detail string, now time.Time) error {
	if err := l.recordOutcome(ctx, s, result, reason, price, now); err != nil {
		return err
	}

	state := domain.StateClosedWin
	if final, err := l.signals.GetOutcome(ctx, s.ID); err == nil && final.Result == domain.OutcomeLoss {
		state = domain.StateClosedLoss
	}

	s.State = state
	s.ClosedPercent = fullClosed
	s.ClosePrice = &price
	if err := l.signals.UpdateSignal(ctx, s); err != nil {
		return fmt.Errorf("close update: %w", err)
	}
	l.appendEvent(ctx, s, domain.EventClosed, fmt.Sprintf("%s at %.2f", detail, price))
	metrics.SignalsClosed.WithLabelValues(string(state)).Inc()
	l.log.Info().Str("signal_id", s.ID).Str("state", string(state)).Float64("price", price).Msg("signal closed")
	return nil
}

// expire closes a signal whose TTL elapsed without resolution. A signal
// that banked a partial win keeps its win; an untouched one expires as a
// loss.
func (l *LifecycleService) expire(ctx context.Context, s *domain.Signal, price float64, now time.Time) error {
	if err := l.recordOutcome(ctx, s, domain.OutcomeLoss, domain.CloseExpiration, price, now); err != nil {
		return err
	}

	s.State = domain.StateClosedExpired
	s.ClosedPercent = fullClosed
	s.ClosePrice = &price
	if err := l.signals.UpdateSignal(ctx, s); err != nil {
		return fmt.Errorf("expire update: %w", err)
	}
	l.appendEvent(ctx, s, domain.EventClosed, fmt.Sprintf("expired at %.2f", price))
	metrics.SignalsClosed.WithLabelValues(string(domain.StateClosedExpired)).Inc()
	l.log.Info().Str("signal_id", s.ID).Msg("signal expired")
	return nil
}

// recordOutcome inserts the single verification record. A duplicate means
// an earlier pass already fixed the result; that is recovery, not failure.
func (l *LifecycleService) recordOutcome(ctx context.Context, s *domain.Signal, result domain.OutcomeResult, reason domain.CloseReason, price float64, now time.Time) error {
	err := l.signals.InsertOutcome(ctx, &domain.Outcome{
		SignalID:     s.ID,
		Result:       result,
		ReachedPrice: price,
		CloseReason:  reason,
		VerifiedAt:   now,
	})
	if errors.Is(err, domain.ErrDuplicateOutcome) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	if l.calibration != nil {
		if derr := l.calibration.RecordDaily(ctx, result, now); derr != nil {
			l.log.Warn().Err(derr).Msg("daily performance update failed")
		}
	}
	return nil
}

func (l *LifecycleService) appendEvent(ctx context.Context, s *domain.Signal, kind domain.EventKind, detail string) {
	err := l.events.Append(ctx, &domain.SignalEvent{
		SignalID: s.ID,
		At:       time.Now().UTC(),
		Kind:     kind,
		Detail:   detail,
	})
	if err != nil {
		l.log.Warn().Err(err).Str("signal_id", s.ID).Str("kind", string(kind)).Msg("event not recorded")
	}
}

// tierReached reports whether price has touched a take-profit level in the
// signal's favorable direction.
func tierReached(s *domain.Signal, price, tier float64) bool {
	if s.Direction == domain.Long {
		return price >= tier
	}
	return price <= tier
}

// stopCrossed reports whether price has touched the stop.
func stopCrossed(s *domain.Signal, price float64) bool {
	if s.Direction == domain.Long {
		return price <= s.StopLoss
	}
	return price >= s.StopLoss
}

// improvesStop reports whether the proposal strictly reduces risk for the
// signal's direction. Stops only ever tighten.
func improvesStop(s *domain.Signal, proposal float64) bool {
	if s.Direction == domain.Long {
		return proposal > s.StopLoss
	}
	return proposal < s.StopLoss
}
