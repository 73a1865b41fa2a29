package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/repository"
)

type lifecycleFixture struct {
	signals *repository.InMemorySignalRepository
	events  *repository.InMemoryEventRepository
	svc     *LifecycleService
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	signals := repository.NewInMemorySignalRepository()
	events := repository.NewInMemoryEventRepository()
	buckets := repository.NewInMemoryBucketRepository(signals)
	calibration := NewCalibrationService(buckets, zerolog.Nop())
	return &lifecycleFixture{
		signals: signals,
		events:  events,
		svc:     NewLifecycleService(signals, events, nil, calibration, "BTC", zerolog.Nop()),
	}
}

func (f *lifecycleFixture) seedLong(t *testing.T, id string, stopLoss float64) *domain.Signal {
	t.Helper()
	now := time.Now().UTC()
	s := &domain.Signal{
		ID:          id,
		Symbol:      "BTC",
		Direction:   domain.Long,
		EntryPrice:  100,
		StopLoss:    stopLoss,
		TakeProfit1: 104,
		TakeProfit2: 107,
		TakeProfit3: 110,
		Probability: 70,
		Score:       70,
		Timeframe:   domain.Timeframe1h,
		Source:      domain.SourceScheduled,
		State:       domain.StateActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := f.signals.CreateSignal(context.Background(), s); err != nil {
		t.Fatalf("seed signal: %v", err)
	}
	return s
}

func (f *lifecycleFixture) process(t *testing.T, id string, price float64) *domain.Signal {
	t.Helper()
	ctx := context.Background()
	s, err := f.signals.GetSignalByID(ctx, id)
	if err != nil {
		t.Fatalf("load signal: %v", err)
	}
	if err := f.svc.ProcessSignal(ctx, s, price); err != nil {
		t.Fatalf("process signal: %v", err)
	}
	s, err = f.signals.GetSignalByID(ctx, id)
	if err != nil {
		t.Fatalf("reload signal: %v", err)
	}
	return s
}

func TestLifecycleTieredPartialClose(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedLong(t, "s1", 95)

	// TP1 touched: 30% closes, win outcome recorded, signal stays open.
	s := f.process(t, "s1", 104.5)
	if s.State != domain.StatePartiallyClosed {
		t.Fatalf("expected partially_closed, got %s", s.State)
	}
	if s.ClosedPercent != 30 {
		t.Fatalf("expected 30%% closed, got %.0f", s.ClosedPercent)
	}
	if f.signals.OutcomeCount() != 1 {
		t.Fatalf("expected 1 outcome, got %d", f.signals.OutcomeCount())
	}

	// Same price again: nothing changes.
	s = f.process(t, "s1", 104.5)
	if s.ClosedPercent != 30 || f.signals.OutcomeCount() != 1 {
		t.Fatalf("second pass changed state: %.0f%% closed, %d outcomes", s.ClosedPercent, f.signals.OutcomeCount())
	}

	// TP2: closed percent rises, still the single outcome.
	s = f.process(t, "s1", 107.2)
	if s.ClosedPercent != 90 || s.State != domain.StatePartiallyClosed {
		t.Fatalf("expected 90%% partially_closed, got %.0f%% %s", s.ClosedPercent, s.State)
	}
	if f.signals.OutcomeCount() != 1 {
		t.Fatalf("expected 1 outcome after TP2, got %d", f.signals.OutcomeCount())
	}

	// TP3: terminal win.
	s = f.process(t, "s1", 110.5)
	if s.State != domain.StateClosedWin || s.ClosedPercent != 100 {
		t.Fatalf("expected closed_win 100%%, got %s %.0f%%", s.State, s.ClosedPercent)
	}
	if s.ClosePrice == nil {
		t.Fatal("expected close price on terminal signal")
	}

	outcome, err := f.signals.GetOutcome(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get outcome: %v", err)
	}
	if outcome.Result != domain.OutcomeWin || outcome.CloseReason != domain.CloseTakeProfit {
		t.Fatalf("wrong outcome: %+v", outcome)
	}

	// Terminal signals are no-ops.
	s = f.process(t, "s1", 50)
	if s.State != domain.StateClosedWin || f.signals.OutcomeCount() != 1 {
		t.Fatalf("terminal signal mutated: %s, %d outcomes", s.State, f.signals.OutcomeCount())
	}
}

func TestLifecycleStopLossBeatsInvalidation(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedLong(t, "s1", 95)

	// 6% adverse but through the stop: verification records the loss, no
	// invalidation.
	s := f.process(t, "s1", 94)
	if s.State != domain.StateClosedLoss {
		t.Fatalf("expected closed_loss, got %s", s.State)
	}

	outcome, err := f.signals.GetOutcome(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get outcome: %v", err)
	}
	if outcome.Result != domain.OutcomeLoss || outcome.CloseReason != domain.CloseStopLoss {
		t.Fatalf("wrong outcome: %+v", outcome)
	}
}

func TestLifecycleInvalidation(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedLong(t, "s1", 90)

	// 7% adverse, stop untouched: structural invalidation, no outcome.
	s := f.process(t, "s1", 93)
	if s.State != domain.StateInvalidated {
		t.Fatalf("expected invalidated, got %s", s.State)
	}
	if f.signals.OutcomeCount() != 0 {
		t.Fatalf("invalidation must not record an outcome, got %d", f.signals.OutcomeCount())
	}

	events, _ := f.events.ListBySignal(context.Background(), "s1")
	if len(events) != 1 || events[0].Kind != domain.EventInvalidated {
		t.Fatalf("expected a single invalidated event, got %+v", events)
	}
}

func TestLifecycleBreakevenAndMonotonicStop(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedLong(t, "s1", 95)

	// Halfway to TP1: stop jumps to entry.
	s := f.process(t, "s1", 102)
	if s.StopLoss != 100 {
		t.Fatalf("expected breakeven stop 100, got %.2f", s.StopLoss)
	}

	// Price retreats: the stop never loosens.
	s = f.process(t, "s1", 101)
	if s.StopLoss != 100 {
		t.Fatalf("stop loosened to %.2f", s.StopLoss)
	}

	// TP1 touch activates trailing: atrProxy=2, stop = 104.5 - 3 = 101.5.
	s = f.process(t, "s1", 104.5)
	if s.StopLoss != 101.5 {
		t.Fatalf("expected trailing stop 101.5, got %.2f", s.StopLoss)
	}

	// A lower price proposes a worse stop: rejected.
	s = f.process(t, "s1", 103)
	if s.StopLoss != 101.5 {
		t.Fatalf("trailing stop regressed to %.2f", s.StopLoss)
	}

	// Higher price tightens further: 108 - 3 = 105.
	s = f.process(t, "s1", 108)
	if s.StopLoss != 105 {
		t.Fatalf("expected trailing stop 105, got %.2f", s.StopLoss)
	}
}

func TestLifecycleExpiry(t *testing.T) {
	f := newLifecycleFixture(t)
	s := f.seedLong(t, "s1", 95)
	s.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	if err := f.signals.UpdateSignal(context.Background(), s); err != nil {
		t.Fatalf("update signal: %v", err)
	}

	got := f.process(t, "s1", 101)
	if got.State != domain.StateClosedExpired {
		t.Fatalf("expected closed_expired, got %s", got.State)
	}

	outcome, err := f.signals.GetOutcome(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get outcome: %v", err)
	}
	if outcome.Result != domain.OutcomeLoss || outcome.CloseReason != domain.CloseExpiration {
		t.Fatalf("wrong expiry outcome: %+v", outcome)
	}
}

func TestLifecycleShortStopMonotonicity(t *testing.T) {
	f := newLifecycleFixture(t)
	now := time.Now().UTC()
	s := &domain.Signal{
		ID:          "short1",
		Symbol:      "BTC",
		Direction:   domain.Short,
		EntryPrice:  100,
		StopLoss:    105,
		TakeProfit1: 96,
		TakeProfit2: 93,
		TakeProfit3: 90,
		State:       domain.StateActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := f.signals.CreateSignal(context.Background(), s); err != nil {
		t.Fatalf("seed short: %v", err)
	}

	// Halfway to TP1 (98): breakeven pulls the stop down to entry.
	got := f.process(t, "short1", 98)
	if got.StopLoss != 100 {
		t.Fatalf("expected short breakeven stop 100, got %.2f", got.StopLoss)
	}

	// TP1 touch: trailing proposes 95.5 + 3 = 98.5... never above current.
	got = f.process(t, "short1", 95.5)
	if got.StopLoss != 98.5 {
		t.Fatalf("expected trailing stop 98.5, got %.2f", got.StopLoss)
	}
	if got.ClosedPercent != 30 {
		t.Fatalf("expected 30%% closed at TP1, got %.0f", got.ClosedPercent)
	}

	// Bounce up: stop never rises again.
	got = f.process(t, "short1", 97)
	if got.StopLoss != 98.5 {
		t.Fatalf("short stop loosened to %.2f", got.StopLoss)
	}
}
