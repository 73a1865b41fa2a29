package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/usecase"
)

// BacktestHandler replays the scoring rules over fetched history.
type BacktestHandler struct {
	backtest *usecase.BacktestService
	candles  domain.CandleProvider
	symbol   string
}

func NewBacktestHandler(backtest *usecase.BacktestService, candles domain.CandleProvider, symbol string) *BacktestHandler {
	return &BacktestHandler{backtest: backtest, candles: candles, symbol: symbol}
}

// Run handles POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := struct {
		Timeframe string `json:"timeframe"`
		Candles   int    `json:"candles"`
		Lookback  int    `json:"lookback"`
		Horizon   int    `json:"horizon"`
	}{
		Timeframe: string(domain.Timeframe1h),
		Candles:   500,
	}
	if r.Body != nil {
		// An empty body runs with defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	candles, err := h.candles.Candles(r.Context(), h.symbol, domain.Timeframe(req.Timeframe), req.Candles)
	if err != nil {
		http.Error(w, "Candle fetch failed", http.StatusBadGateway)
		return
	}

	report, err := h.backtest.Run(candles, usecase.BacktestConfig{
		Lookback: req.Lookback,
		Horizon:  req.Horizon,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "Backtest failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
