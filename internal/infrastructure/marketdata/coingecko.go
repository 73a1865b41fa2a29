package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/herberelias/cripto-signals/internal/domain"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches OHLC data from CoinGecko. Its OHLC endpoint
// carries no volume, so candles come back with Volume 0 and volume-based
// scoring rules simply do not fire on this source.
type CoinGeckoProvider struct {
	httpClient *http.Client
}

func NewCoinGeckoProvider() *CoinGeckoProvider {
	return &CoinGeckoProvider{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (p *CoinGeckoProvider) Name() string { return "CoinGecko" }

func coinID(symbol string) string {
	if symbol == "BTC" {
		return "bitcoin"
	}
	return strings.ToLower(symbol)
}

// daysFor converts a candle count to the day span CoinGecko expects.
func daysFor(tf domain.Timeframe, limit int) int {
	perDay := 24
	switch tf {
	case domain.Timeframe5m:
		perDay = 288
	case domain.Timeframe15m:
		perDay = 96
	case domain.Timeframe4h:
		perDay = 6
	case domain.Timeframe1d:
		perDay = 1
	}
	days := (limit + perDay - 1) / perDay
	if days < 1 {
		days = 1
	}
	return days
}

func (p *CoinGeckoProvider) Candles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	url := fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=usd&days=%d", coinGeckoBaseURL, coinID(symbol), daysFor(tf, limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko API error: %d", resp.StatusCode)
	}

	// Rows are [timestamp_ms, open, high, low, close].
	var rows [][]float64
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}

	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 5 {
			continue
		}
		candles = append(candles, domain.Candle{
			OpenTime: time.UnixMilli(int64(r[0])),
			Open:     r[1],
			High:     r[2],
			Low:      r[3],
			Close:    r[4],
		})
	}
	return candles, nil
}

type cgPriceResponse map[string]struct {
	USD float64 `json:"usd"`
}

func (p *CoinGeckoProvider) Price(ctx context.Context, symbol string) (float64, error) {
	id := coinID(symbol)
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", coinGeckoBaseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("coingecko API error: %d", resp.StatusCode)
	}

	var out cgPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	entry, ok := out[id]
	if !ok || entry.USD == 0 {
		return 0, fmt.Errorf("coingecko: no USD price for %s", symbol)
	}
	return entry.USD, nil
}
