package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	CourierErrors         *prometheus.CounterVec
	StatusUpdateFailures  *prometheus.CounterVec
	OrderAPIRetries       prometheus.Counter
	LocationCacheRequests *prometheus.CounterVec
}

// NewMetrics creates Prometheus metrics registered with reg.
// A nil reg registers with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_requests_total",
				Help: "Total number of requests by operation, provider, and status",
			},
			[]string{"operation", "provider", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courier_request_duration_seconds",
				Help:    "Request duration in seconds by operation and provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
		CourierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_provider_errors_total",
				Help: "Total courier API errors by provider and error type",
			},
			[]string{"provider", "error_type"},
		),
		StatusUpdateFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_status_update_failures_total",
				Help: "Consignments created whose order status write-back failed",
			},
			[]string{"provider"},
		),
		OrderAPIRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "courier_order_api_retries_total",
				Help: "Retried order list fetches",
			},
		),
		LocationCacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_location_cache_requests_total",
				Help: "Location lookups by provider, level, and cache result",
			},
			[]string{"provider", "level", "result"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, provider, status).Inc()
	m.RequestDuration.WithLabelValues(operation, provider).Observe(duration)
}

// RecordError records a courier error metric.
func (m *Metrics) RecordError(provider, errorType string) {
	if m == nil {
		return
	}
	m.CourierErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordStatusUpdateFailure counts a failed order write-back.
func (m *Metrics) RecordStatusUpdateFailure(provider string) {
	if m == nil {
		return
	}
	m.StatusUpdateFailures.WithLabelValues(provider).Inc()
}

// RecordCacheLookup counts a location lookup served from (hit) or past (miss) the cache.
func (m *Metrics) RecordCacheLookup(provider, level string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.LocationCacheRequests.WithLabelValues(provider, level, result).Inc()
}
