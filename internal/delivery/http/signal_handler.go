package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/herberelias/cripto-signals/internal/domain"
	"github.com/herberelias/cripto-signals/internal/usecase"
)

// SignalHandler serves signal evaluation and lookup endpoints.
type SignalHandler struct {
	generator *usecase.SignalGenerator
	signals   domain.SignalRepository
	events    domain.EventRepository
	timeframe domain.Timeframe
}

func NewSignalHandler(generator *usecase.SignalGenerator, signals domain.SignalRepository, events domain.EventRepository, timeframe domain.Timeframe) *SignalHandler {
	return &SignalHandler{
		generator: generator,
		signals:   signals,
		events:    events,
		timeframe: timeframe,
	}
}

// Evaluate handles POST /api/signals/evaluate
func (h *SignalHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tf := h.timeframe
	if q := r.URL.Query().Get("timeframe"); q != "" {
		tf = domain.Timeframe(q)
	}

	signal, err := h.generator.EvaluateSignal(r.Context(), tf)
	switch {
	case errors.Is(err, domain.ErrNoSignal):
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"signal":  nil,
			"message": "no signal this cycle",
		})
	case errors.Is(err, domain.ErrInsufficientData):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case err != nil:
		http.Error(w, "Evaluation failed", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusCreated, map[string]interface{}{"signal": signal})
	}
}

// Active handles GET /api/signals/active
func (h *SignalHandler) Active(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	signals, err := h.signals.GetActiveSignals(r.Context())
	if err != nil {
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

// History handles GET /api/signals/history?limit=
func (h *SignalHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	signals, err := h.signals.GetHistory(r.Context(), limit)
	if err != nil {
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

// Events handles GET /api/signals/events?id=
func (h *SignalHandler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}
	if _, err := h.signals.GetSignalByID(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Signal not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}

	events, err := h.events.ListBySignal(r.Context(), id)
	if err != nil {
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
