package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CallMetrics tracks dispatcher-level calls, one per GetChatCompletion
// regardless of how many attempts it took.
//
// Metrics:
//   - relay_calls_total: Total calls by provider, model, outcome
//   - relay_call_duration_seconds: Wall time including backoff
//   - relay_call_attempts: Attempts per call
//   - relay_tokens_total: Tokens reported by vendors
type CallMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	attempts     *prometheus.HistogramVec
	tokensTotal  *prometheus.CounterVec
}

// NewCallMetrics creates and registers call metrics with the provided registry.
func NewCallMetrics(namespace string, buckets []float64, registry prometheus.Registerer) *CallMetrics {
	cm := &CallMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Total number of completion calls by outcome",
			},
			[]string{"provider", "model", "outcome"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Duration of completion calls in seconds, including retries",
				Buckets:   buckets,
			},
			[]string{"provider", "model"},
		),

		attempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_attempts",
				Help:      "Number of attempts made per completion call",
				Buckets:   []float64{1, 2, 3, 4, 5, 8},
			},
			[]string{"provider"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Total number of tokens reported by providers",
			},
			[]string{"provider", "model", "type"},
		),
	}

	registry.MustRegister(
		cm.callsTotal,
		cm.callDuration,
		cm.attempts,
		cm.tokensTotal,
	)

	return cm
}

// RecordCall records a finished call.
func (cm *CallMetrics) RecordCall(provider, model, outcome string, attempts int, duration time.Duration) {
	cm.callsTotal.WithLabelValues(provider, model, outcome).Inc()
	cm.callDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if attempts > 0 {
		cm.attempts.WithLabelValues(provider).Observe(float64(attempts))
	}
}

// RecordTokens records prompt and completion counts. Negative counts mean
// the vendor did not report usage and are skipped.
func (cm *CallMetrics) RecordTokens(provider, model string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		cm.tokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		cm.tokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}
