package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// BinanceProvider serves candles and spot prices from the Binance public
// API. It is the first provider in the default chain.
type BinanceProvider struct {
	client *binance.Client
}

func NewBinanceProvider() *BinanceProvider {
	// Public market data endpoints need no credentials.
	return &BinanceProvider{client: binance.NewClient("", "")}
}

func (p *BinanceProvider) Name() string { return "Binance" }

// pair maps the engine's bare symbol (BTC) to a Binance trading pair.
func pair(symbol string) string {
	return symbol + "USDT"
}

func (p *BinanceProvider) Candles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(pair(symbol)).
		Interval(string(tf)).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	candles := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		open, err1 := strconv.ParseFloat(k.Open, 64)
		high, err2 := strconv.ParseFloat(k.High, 64)
		low, err3 := strconv.ParseFloat(k.Low, 64)
		cls, err4 := strconv.ParseFloat(k.Close, 64)
		vol, err5 := strconv.ParseFloat(k.Volume, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		candles = append(candles, domain.Candle{
			OpenTime: time.UnixMilli(k.OpenTime),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cls,
			Volume:   vol,
		})
	}
	return candles, nil
}

func (p *BinanceProvider) Price(ctx context.Context, symbol string) (float64, error) {
	prices, err := p.client.NewListPricesService().Symbol(pair(symbol)).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance price: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("binance price: empty response for %s", pair(symbol))
	}
	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance price: %w", err)
	}
	return price, nil
}
