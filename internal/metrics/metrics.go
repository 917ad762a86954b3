package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signs",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled by the gateway, labeled by method and status class.",
	}, []string{"method", "status"})

	HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "signs",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Current number of HTTP requests being served.",
	})

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "signs",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"method"})

	// AnalysesTotal counts workflow runs by outcome (ok, source_not_found, inference_error, persist_error, invalid).
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signs",
		Name:      "analyses_total",
		Help:      "Total sign analyses, labeled by result.",
	}, []string{"result"})

	// FallbackTotal counts descriptions replaced by the fallback text.
	FallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "signs",
		Name:      "description_fallback_total",
		Help:      "Total descriptions replaced with the no-sign fallback.",
	})

	InferenceDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "signs",
		Name:      "inference_duration_seconds",
		Help:      "Latency of each inference call, labeled by step (describe, precaution).",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"step"})

	CandidatesListedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signs",
		Name:      "candidates_listed_total",
		Help:      "Total candidate listings, labeled by result (ok, error).",
	}, []string{"result"})
)

// Register registers all collectors with the default registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestsInFlight,
			HTTPRequestDurationSeconds,
			AnalysesTotal,
			FallbackTotal,
			InferenceDurationSeconds,
			CandidatesListedTotal,
		)
	})
}
