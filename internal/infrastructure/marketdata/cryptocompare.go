package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/herberelias/cripto-signals/internal/domain"
)

const cryptoCompareBaseURL = "https://min-api.cryptocompare.com/data"

// CryptoCompareProvider fetches candles and prices from the CryptoCompare
// REST API.
type CryptoCompareProvider struct {
	httpClient *http.Client
	apiKey     string
}

func NewCryptoCompareProvider(apiKey string) *CryptoCompareProvider {
	return &CryptoCompareProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
	}
}

func (p *CryptoCompareProvider) Name() string { return "CryptoCompare" }

type ccCandle struct {
	Time     int64   `json:"time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	VolumeTo float64 `json:"volumeto"`
}

type ccHistoResponse struct {
	Response string     `json:"Response"`
	Message  string     `json:"Message"`
	Data     []ccCandle `json:"Data"`
}

// endpointFor maps a timeframe to the CryptoCompare histo endpoint and the
// aggregation factor applied to its base unit.
func endpointFor(tf domain.Timeframe) (endpoint string, aggregate int) {
	switch tf {
	case domain.Timeframe5m:
		return "histominute", 5
	case domain.Timeframe15m:
		return "histominute", 15
	case domain.Timeframe1h:
		return "histohour", 1
	case domain.Timeframe4h:
		return "histohour", 4
	case domain.Timeframe1d:
		return "histoday", 1
	default:
		return "histohour", 1
	}
}

func (p *CryptoCompareProvider) Candles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	endpoint, aggregate := endpointFor(tf)

	q := url.Values{}
	q.Set("fsym", symbol)
	q.Set("tsym", "USD")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("aggregate", strconv.Itoa(aggregate))
	if p.apiKey != "" {
		q.Set("api_key", p.apiKey)
	}

	var out ccHistoResponse
	if err := p.getJSON(ctx, fmt.Sprintf("%s/%s?%s", cryptoCompareBaseURL, endpoint, q.Encode()), &out); err != nil {
		return nil, err
	}
	if out.Response == "Error" {
		return nil, fmt.Errorf("cryptocompare: %s", out.Message)
	}

	candles := make([]domain.Candle, 0, len(out.Data))
	for _, v := range out.Data {
		candles = append(candles, domain.Candle{
			OpenTime: time.Unix(v.Time, 0),
			Open:     v.Open,
			High:     v.High,
			Low:      v.Low,
			Close:    v.Close,
			Volume:   v.VolumeTo,
		})
	}
	return candles, nil
}

type ccPriceResponse struct {
	USD float64 `json:"USD"`
}

func (p *CryptoCompareProvider) Price(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("fsym", symbol)
	q.Set("tsyms", "USD")
	if p.apiKey != "" {
		q.Set("api_key", p.apiKey)
	}

	var out ccPriceResponse
	if err := p.getJSON(ctx, fmt.Sprintf("%s/price?%s", cryptoCompareBaseURL, q.Encode()), &out); err != nil {
		return 0, err
	}
	if out.USD == 0 {
		return 0, fmt.Errorf("cryptocompare: no USD price for %s", symbol)
	}
	return out.USD, nil
}

func (p *CryptoCompareProvider) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cryptocompare API error: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
