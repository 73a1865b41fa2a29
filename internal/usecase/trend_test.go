package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// stubCandles serves canned candle series per timeframe.
type stubCandles struct {
	byTF map[domain.Timeframe][]domain.Candle
	err  error
}

func (s *stubCandles) Name() string { return "stub" }

func (s *stubCandles) Candles(_ context.Context, _ string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	candles := s.byTF[tf]
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// risingCandles produces a steady uptrend: EMA20 > EMA50 > EMA200.
func risingCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		close := 100 + float64(i)*0.5
		candles[i] = domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     close - 0.3,
			High:     close + 0.1,
			Low:      close - 0.4,
			Close:    close,
			Volume:   100,
		}
	}
	return candles
}

func TestTrendFilterVetoesCounterTrend(t *testing.T) {
	provider := &stubCandles{byTF: map[domain.Timeframe][]domain.Candle{
		domain.Timeframe4h: risingCandles(210),
	}}
	filter := NewTrendFilter(provider, zerolog.Nop())

	bonus, vetoed := filter.Check(context.Background(), "BTC", domain.Timeframe1h, domain.Short)
	if !vetoed {
		t.Fatal("expected veto for SHORT against bullish 4h trend")
	}
	if bonus != 0 {
		t.Fatalf("vetoed check must not award a bonus, got %d", bonus)
	}
}

func TestTrendFilterRewardsAlignment(t *testing.T) {
	provider := &stubCandles{byTF: map[domain.Timeframe][]domain.Candle{
		domain.Timeframe4h: risingCandles(210),
	}}
	filter := NewTrendFilter(provider, zerolog.Nop())

	bonus, vetoed := filter.Check(context.Background(), "BTC", domain.Timeframe1h, domain.Long)
	if vetoed {
		t.Fatal("aligned direction must not be vetoed")
	}
	if bonus != trendBonus {
		t.Fatalf("expected bonus %d, got %d", trendBonus, bonus)
	}
}

func TestTrendFilterNeutralOnFlatMarket(t *testing.T) {
	provider := &stubCandles{byTF: map[domain.Timeframe][]domain.Candle{
		domain.Timeframe4h: flatCandles(210, 100),
	}}
	filter := NewTrendFilter(provider, zerolog.Nop())

	bonus, vetoed := filter.Check(context.Background(), "BTC", domain.Timeframe1h, domain.Long)
	if vetoed || bonus != 0 {
		t.Fatalf("neutral bias must pass unchanged, got bonus=%d vetoed=%v", bonus, vetoed)
	}
}

func TestTrendFilterDegradesOnFetchFailure(t *testing.T) {
	provider := &stubCandles{err: errors.New("upstream down")}
	filter := NewTrendFilter(provider, zerolog.Nop())

	bonus, vetoed := filter.Check(context.Background(), "BTC", domain.Timeframe1h, domain.Short)
	if vetoed || bonus != 0 {
		t.Fatalf("fetch failure must degrade to neutral, got bonus=%d vetoed=%v", bonus, vetoed)
	}
}
