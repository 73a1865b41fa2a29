package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/repository"
	"github.com/herberelias/cripto-signals/internal/usecase"
)

type quietProvider struct{}

func (quietProvider) Name() string { return "quiet" }

func (quietProvider) Candles(_ context.Context, _ string, _ domain.Timeframe, limit int) ([]domain.Candle, error) {
	candles := make([]domain.Candle, 250)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     100, High: 100, Low: 100, Close: 100, Volume: 100,
		}
	}
	return candles, nil
}

func newTestHandler(t *testing.T) (*SignalHandler, *repository.InMemorySignalRepository, *repository.InMemoryEventRepository) {
	t.Helper()
	signals := repository.NewInMemorySignalRepository()
	events := repository.NewInMemoryEventRepository()
	buckets := repository.NewInMemoryBucketRepository(signals)
	calibration := usecase.NewCalibrationService(buckets, zerolog.Nop())
	trend := usecase.NewTrendFilter(quietProvider{}, zerolog.Nop())
	gen := usecase.NewSignalGenerator(quietProvider{}, usecase.NewScorer(), trend, calibration,
		signals, events, usecase.NopNotifier{}, "BTC", time.Hour, zerolog.Nop())
	return NewSignalHandler(gen, signals, events, domain.Timeframe1h), signals, events
}

func TestEvaluateNoSignalReturns200(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/signals/evaluate", nil)
	rec := httptest.NewRecorder()
	handler.Evaluate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Signal  *domain.Signal `json:"signal"`
		Message string         `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Signal != nil || body.Message == "" {
		t.Fatalf("expected null signal with message, got %+v", body)
	}
}

func TestEvaluateRejectsGet(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/signals/evaluate", nil)
	rec := httptest.NewRecorder()
	handler.Evaluate(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestActiveListsOpenSignals(t *testing.T) {
	handler, signals, _ := newTestHandler(t)
	now := time.Now().UTC()
	err := signals.CreateSignal(context.Background(), &domain.Signal{
		ID: "s1", Symbol: "BTC", Direction: domain.Long, EntryPrice: 100,
		State: domain.StateActive, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/signals/active", nil)
	rec := httptest.NewRecorder()
	handler.Active(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []*domain.Signal
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("wrong payload: %+v", got)
	}
}

func TestEventsRequiresKnownSignal(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/signals/events?id=missing", nil)
	rec := httptest.NewRecorder()
	handler.Events(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown signal, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/signals/events", nil)
	rec = httptest.NewRecorder()
	handler.Events(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}
}
