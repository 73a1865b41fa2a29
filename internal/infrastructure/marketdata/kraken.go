package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/herberelias/cripto-signals/internal/domain"
)

const krakenBaseURL = "https://api.kraken.com/0/public"

// KrakenProvider is the last resort in the default provider chain.
type KrakenProvider struct {
	httpClient *http.Client
}

func NewKrakenProvider() *KrakenProvider {
	return &KrakenProvider{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (p *KrakenProvider) Name() string { return "Kraken" }

func intervalMinutes(tf domain.Timeframe) int {
	switch tf {
	case domain.Timeframe5m:
		return 5
	case domain.Timeframe15m:
		return 15
	case domain.Timeframe1h:
		return 60
	case domain.Timeframe4h:
		return 240
	case domain.Timeframe1d:
		return 1440
	default:
		return 60
	}
}

type krakenOHLCResponse struct {
	Error  []string                   `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

func (p *KrakenProvider) Candles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	minutes := intervalMinutes(tf)
	since := time.Now().Unix() - int64(limit*minutes*60)
	url := fmt.Sprintf("%s/OHLC?pair=%sUSD&interval=%d&since=%d", krakenBaseURL, symbol, minutes, since)

	var out krakenOHLCResponse
	if err := p.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	if len(out.Error) > 0 {
		return nil, fmt.Errorf("kraken: %s", out.Error[0])
	}

	// The result maps the resolved pair name to the rows, plus a "last"
	// cursor we skip.
	var rows [][]json.RawMessage
	for key, raw := range out.Result {
		if key == "last" {
			continue
		}
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("kraken: decoding OHLC rows: %w", err)
		}
		break
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, r := range rows {
		// Row: [time, open, high, low, close, vwap, volume, count]
		if len(r) < 7 {
			continue
		}
		var ts float64
		if err := json.Unmarshal(r[0], &ts); err != nil {
			continue
		}
		open, err1 := krakenFloat(r[1])
		high, err2 := krakenFloat(r[2])
		low, err3 := krakenFloat(r[3])
		cls, err4 := krakenFloat(r[4])
		vol, err5 := krakenFloat(r[6])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		candles = append(candles, domain.Candle{
			OpenTime: time.Unix(int64(ts), 0),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cls,
			Volume:   vol,
		})
	}

	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

type krakenTickerResponse struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		C []string `json:"c"`
	} `json:"result"`
}

func (p *KrakenProvider) Price(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/Ticker?pair=%sUSD", krakenBaseURL, symbol)

	var out krakenTickerResponse
	if err := p.getJSON(ctx, url, &out); err != nil {
		return 0, err
	}
	if len(out.Error) > 0 {
		return 0, fmt.Errorf("kraken: %s", out.Error[0])
	}

	for _, ticker := range out.Result {
		if len(ticker.C) == 0 {
			continue
		}
		return strconv.ParseFloat(ticker.C[0], 64)
	}
	return 0, fmt.Errorf("kraken: no ticker for %s", symbol)
}

func krakenFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

func (p *KrakenProvider) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kraken API error: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
