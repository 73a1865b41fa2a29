package http

import (
	"net/http"
	"strconv"

	"github.com/herberelias/cripto-signals/internal/domain"
)

// StatsHandler serves calibration and performance read endpoints.
type StatsHandler struct {
	buckets domain.BucketRepository
}

func NewStatsHandler(buckets domain.BucketRepository) *StatsHandler {
	return &StatsHandler{buckets: buckets}
}

// Buckets handles GET /api/stats/buckets
func (h *StatsHandler) Buckets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	buckets, err := h.buckets.GetBuckets(r.Context())
	if err != nil {
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// Daily handles GET /api/stats/daily?days=
func (h *StatsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := 30
	if q := r.URL.Query().Get("days"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			days = n
		}
	}

	rows, err := h.buckets.GetDailyPerformance(r.Context(), days)
	if err != nil {
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
