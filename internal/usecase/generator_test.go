package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/repository"
)

// flatThenRising builds a series that spends nFlat candles flat and then
// trends up: MACD and the EMA stack both turn clearly bullish.
func flatThenRising(nFlat, nRise int) []domain.Candle {
	candles := flatCandles(nFlat+nRise, 100)
	for i := nFlat; i < nFlat+nRise; i++ {
		close := 100 + float64(i-nFlat+1)*0.5
		candles[i] = domain.Candle{
			OpenTime: candles[i].OpenTime,
			Open:     close - 0.3,
			High:     close + 0.1,
			Low:      close - 0.4,
			Close:    close,
			Volume:   100,
		}
	}
	return candles
}

type generatorFixture struct {
	signals *repository.InMemorySignalRepository
	events  *repository.InMemoryEventRepository
	gen     *SignalGenerator
}

func newGeneratorFixture(t *testing.T, provider domain.CandleProvider) *generatorFixture {
	t.Helper()
	signals := repository.NewInMemorySignalRepository()
	events := repository.NewInMemoryEventRepository()
	buckets := repository.NewInMemoryBucketRepository(signals)
	calibration := NewCalibrationService(buckets, zerolog.Nop())
	trend := NewTrendFilter(provider, zerolog.Nop())
	return &generatorFixture{
		signals: signals,
		events:  events,
		gen:     NewSignalGenerator(provider, NewScorer(), trend, calibration, signals, events, NopNotifier{}, "BTC", time.Hour, zerolog.Nop()),
	}
}

func TestEvaluateSignalEmitsLongInUptrend(t *testing.T) {
	series := flatThenRising(150, 100)
	provider := &stubCandles{byTF: map[domain.Timeframe][]domain.Candle{
		domain.Timeframe1h: series,
		domain.Timeframe4h: series,
	}}
	f := newGeneratorFixture(t, provider)
	ctx := context.Background()

	signal, err := f.gen.EvaluateSignal(ctx, domain.Timeframe1h)
	if err != nil {
		t.Fatalf("EvaluateSignal: %v", err)
	}

	if signal.Direction != domain.Long {
		t.Fatalf("expected LONG, got %s", signal.Direction)
	}
	if signal.State != domain.StateActive || signal.Source != domain.SourceScheduled {
		t.Fatalf("wrong initial state/source: %s/%s", signal.State, signal.Source)
	}
	if !(signal.StopLoss < signal.EntryPrice &&
		signal.EntryPrice < signal.TakeProfit1 &&
		signal.TakeProfit1 < signal.TakeProfit2 &&
		signal.TakeProfit2 < signal.TakeProfit3) {
		t.Fatalf("level ordering broken: %+v", signal)
	}
	if signal.RiskReward < minRiskReward {
		t.Fatalf("risk reward %f below gate", signal.RiskReward)
	}
	if !signal.ExpiresAt.After(signal.CreatedAt) {
		t.Fatal("expiry must follow creation")
	}
	if signal.Reason == "" {
		t.Fatal("expected populated reason text")
	}

	// Persisted and audited.
	stored, err := f.signals.GetSignalByID(ctx, signal.ID)
	if err != nil {
		t.Fatalf("signal not persisted: %v", err)
	}
	if stored.Score != signal.Score {
		t.Fatalf("stored score mismatch: %d vs %d", stored.Score, signal.Score)
	}
	events, _ := f.events.ListBySignal(ctx, signal.ID)
	if len(events) != 1 || events[0].Kind != domain.EventCreated {
		t.Fatalf("expected a single created event, got %+v", events)
	}
}

func TestEvaluateSignalTrendVeto(t *testing.T) {
	// 1h says long, 4h trends hard down: vetoed.
	falling := make([]domain.Candle, 210)
	for i := range falling {
		close := 300 - float64(i)*0.5
		falling[i] = domain.Candle{Open: close + 0.3, High: close + 0.4, Low: close - 0.1, Close: close, Volume: 100}
	}
	provider := &stubCandles{byTF: map[domain.Timeframe][]domain.Candle{
		domain.Timeframe1h: flatThenRising(150, 100),
		domain.Timeframe4h: falling,
	}}
	f := newGeneratorFixture(t, provider)

	_, err := f.gen.EvaluateSignal(context.Background(), domain.Timeframe1h)
	if !errors.Is(err, domain.ErrNoSignal) {
		t.Fatalf("expected ErrNoSignal on trend veto, got %v", err)
	}
}

func TestEvaluateSignalQuietMarket(t *testing.T) {
	provider := &stubCandles{byTF: map[domain.Timeframe][]domain.Candle{
		domain.Timeframe1h: flatCandles(250, 100),
		domain.Timeframe4h: flatCandles(250, 100),
	}}
	f := newGeneratorFixture(t, provider)

	_, err := f.gen.EvaluateSignal(context.Background(), domain.Timeframe1h)
	if !errors.Is(err, domain.ErrNoSignal) {
		t.Fatalf("expected ErrNoSignal, got %v", err)
	}
}

func TestEvaluateSignalInsufficientHistory(t *testing.T) {
	provider := &stubCandles{byTF: map[domain.Timeframe][]domain.Candle{
		domain.Timeframe1h: flatCandles(100, 100),
	}}
	f := newGeneratorFixture(t, provider)

	_, err := f.gen.EvaluateSignal(context.Background(), domain.Timeframe1h)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
