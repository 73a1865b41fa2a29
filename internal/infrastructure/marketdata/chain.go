package marketdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/metrics"
)

// Provider is a market data source that can serve both candles and spot
// prices.
type Provider interface {
	domain.CandleProvider
	domain.PriceProvider
}

// Chain tries an ordered list of providers and short-circuits on the first
// success. It satisfies both provider interfaces itself, so callers never
// know which upstream answered.
type Chain struct {
	providers []Provider
	log       zerolog.Logger
}

func NewChain(log zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log.With().Str("component", "marketdata").Logger()}
}

// DefaultChain wires the production provider order:
// Binance, CryptoCompare, CoinGecko, Kraken.
func DefaultChain(log zerolog.Logger, cryptoCompareKey string) *Chain {
	return NewChain(log,
		NewBinanceProvider(),
		NewCryptoCompareProvider(cryptoCompareKey),
		NewCoinGeckoProvider(),
		NewKrakenProvider(),
	)
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Candles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	var lastErr error
	for _, p := range c.providers {
		candles, err := p.Candles(ctx, symbol, tf, limit)
		if err != nil {
			lastErr = err
			metrics.ProviderFailures.WithLabelValues(p.Name()).Inc()
			c.log.Warn().Str("provider", p.Name()).Err(err).Msg("candle fetch failed, trying next provider")
			continue
		}
		return candles, nil
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrAllProvidersFailed, lastErr)
}

func (c *Chain) Price(ctx context.Context, symbol string) (float64, error) {
	var lastErr error
	for _, p := range c.providers {
		price, err := p.Price(ctx, symbol)
		if err != nil {
			lastErr = err
			metrics.ProviderFailures.WithLabelValues(p.Name()).Inc()
			c.log.Warn().Str("provider", p.Name()).Err(err).Msg("price fetch failed, trying next provider")
			continue
		}
		return price, nil
	}
	return 0, fmt.Errorf("%w: %v", domain.ErrAllProvidersFailed, lastErr)
}
