package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Generation metrics
	GenerationsTotal          *prometheus.CounterVec
	GenerationDurationSeconds *prometheus.HistogramVec
	DocumentBytes             prometheus.Histogram

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		GenerationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "contract_generations_total",
				Help: "Total number of contract generation attempts by outcome",
			},
			[]string{"outcome"}, // outcome: success, validation_error, template_error
		),

		GenerationDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contract_generation_duration_seconds",
				Help:    "Contract generation duration in seconds by outcome",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"outcome"},
		),

		DocumentBytes: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contract_document_bytes",
				Help:    "Size of generated contract documents in bytes",
				Buckets: prometheus.ExponentialBuckets(8*1024, 2, 8), // 8KiB to 1MiB
			},
		),

		HTTPRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "contract_http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
	}
}

// ObserveGeneration records one generation attempt.
// Document size is only observed for successful generations.
func (m *Metrics) ObserveGeneration(outcome string, duration time.Duration, sizeBytes int) {
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
	m.GenerationDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
	if sizeBytes > 0 {
		m.DocumentBytes.Observe(float64(sizeBytes))
	}
}

// RecordHTTPRequest counts a served request
func (m *Metrics) RecordHTTPRequest(route, status string) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}
