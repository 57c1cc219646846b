package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks per-attempt behavior of each provider.
//
// Metrics:
//   - relay_provider_health: Provider health status (1=healthy, 0=unhealthy)
//   - relay_provider_latency_seconds: Latency of a single attempt
//   - relay_provider_errors_total: Errors by kind
//   - relay_provider_retries_total: Retries by the kind that caused them
//   - relay_provider_models: Size of the last model listing
type ProviderMetrics struct {
	health  *prometheus.GaugeVec
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
	retries *prometheus.CounterVec
	models  *prometheus.GaugeVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(namespace string, buckets []float64, registry prometheus.Registerer) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_latency_seconds",
				Help:      "Latency of a single provider attempt in seconds",
				Buckets:   buckets,
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by kind",
			},
			[]string{"provider", "kind"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_retries_total",
				Help:      "Total number of retries by the error kind that caused them",
			},
			[]string{"provider", "kind"},
		),

		models: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_models",
				Help:      "Number of models in the last listing",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.latency,
		pm.errors,
		pm.retries,
		pm.models,
	)

	return pm
}

// UpdateHealth sets the health gauge of a provider.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordLatency records the latency of one attempt in seconds.
func (pm *ProviderMetrics) RecordLatency(provider, model string, latencySeconds float64) {
	pm.latency.WithLabelValues(provider, model).Observe(latencySeconds)
}

// RecordError records an error. kind is one of the providers.Kind strings
// (configuration, timeout, connection, vendor, malformed_response, ...).
func (pm *ProviderMetrics) RecordError(provider, kind string) {
	pm.errors.WithLabelValues(provider, kind).Inc()
}

// RecordRetry records that an attempt failed with a retryable error and
// another one will be made.
func (pm *ProviderMetrics) RecordRetry(provider, kind string) {
	pm.retries.WithLabelValues(provider, kind).Inc()
}

// SetModelCount records the size of a model listing.
func (pm *ProviderMetrics) SetModelCount(provider string, count int) {
	pm.models.WithLabelValues(provider).Set(float64(count))
}
