// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignalsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signals_generated_total",
		Help: "Signals accepted by the scoring engine.",
	}, []string{"direction", "source"})

	SignalsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signals_rejected_total",
		Help: "Evaluation cycles that produced no signal.",
	}, []string{"reason"})

	SignalsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signals_closed_total",
		Help: "Signals reaching a terminal state.",
	}, []string{"state"})

	ActiveSignals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signals_active",
		Help: "Signals currently being monitored.",
	})

	ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketdata_provider_failures_total",
		Help: "Market data requests that failed per provider.",
	}, []string{"provider"})

	CycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_cycle_duration_seconds",
		Help:    "Duration of scheduled job cycles.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	PushesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_notifications_sent_total",
		Help: "FCM notifications dispatched.",
	})
)
