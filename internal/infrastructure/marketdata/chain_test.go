package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
)

type stubProvider struct {
	name    string
	candles []domain.Candle
	price   float64
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Candles(_ context.Context, _ string, _ domain.Timeframe, _ int) ([]domain.Candle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func (s *stubProvider) Price(_ context.Context, _ string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

func TestChainShortCircuitsOnFirstSuccess(t *testing.T) {
	first := &stubProvider{name: "first", candles: []domain.Candle{{OpenTime: time.Now(), Close: 1}}}
	second := &stubProvider{name: "second"}
	chain := NewChain(zerolog.Nop(), first, second)

	candles, err := chain.Candles(context.Background(), "BTC", domain.Timeframe1h, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	if second.calls != 0 {
		t.Fatalf("expected second provider untouched, got %d calls", second.calls)
	}
}

func TestChainFallsThroughOnFailure(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("down")}
	second := &stubProvider{name: "second", price: 50000}
	chain := NewChain(zerolog.Nop(), first, second)

	price, err := chain.Price(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 50000 {
		t.Fatalf("expected price from second provider, got %v", price)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("expected both providers tried once, got %d and %d", first.calls, second.calls)
	}
}

func TestChainAllProvidersFailed(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("down")}
	second := &stubProvider{name: "second", err: errors.New("also down")}
	chain := NewChain(zerolog.Nop(), first, second)

	_, err := chain.Candles(context.Background(), "BTC", domain.Timeframe1h, 10)
	if !errors.Is(err, domain.ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}
}
