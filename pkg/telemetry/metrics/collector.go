package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for a call.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeExhausted = "retry_exhausted"
)

// otherLabel replaces model names once the cardinality limit is reached.
const otherLabel = "other"

// Collector owns every relay metric. All methods are safe on a nil
// *Collector and on a disabled one, so callers never need to check.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	calls     *CallMetrics
	providers *ProviderMetrics
	memory    *MemoryMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector with its own registry when registry is
// nil.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	defer collector.WriteTextfile("/var/lib/node_exporter/relay.prom")
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = config.DefaultLatencyBuckets
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		calls:              NewCallMetrics(cfg.Namespace, cfg.LatencyBuckets, registry),
		providers:          NewProviderMetrics(cfg.Namespace, cfg.LatencyBuckets, registry),
		memory:             NewMemoryMetrics(cfg.Namespace, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// model folds unseen models into "other" once the limit is reached.
func (c *Collector) model(provider, model string) string {
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", provider, model)) {
		return otherLabel
	}
	return model
}

// RecordCall records a finished dispatcher call.
func (c *Collector) RecordCall(provider, model, outcome string, attempts int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.calls.RecordCall(provider, c.model(provider, model), outcome, attempts, duration)
}

// RecordTokens records token usage of a successful call.
func (c *Collector) RecordTokens(provider, model string, promptTokens, completionTokens int) {
	if !c.enabled() {
		return
	}
	c.calls.RecordTokens(provider, c.model(provider, model), promptTokens, completionTokens)
}

// RecordAttempt records the latency of a single attempt.
func (c *Collector) RecordAttempt(provider, model string, latency time.Duration) {
	if !c.enabled() {
		return
	}
	c.providers.RecordLatency(provider, c.model(provider, model), latency.Seconds())
}

// RecordProviderError records an error by kind.
func (c *Collector) RecordProviderError(provider, kind string) {
	if !c.enabled() {
		return
	}
	c.providers.RecordError(provider, kind)
}

// RecordRetry records a retry caused by an error of the given kind.
func (c *Collector) RecordRetry(provider, kind string) {
	if !c.enabled() {
		return
	}
	c.providers.RecordRetry(provider, kind)
}

// UpdateProviderHealth sets the health gauge of a provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.enabled() {
		return
	}
	c.providers.UpdateHealth(provider, healthy)
}

// SetModelCount records the size of a provider's model listing.
func (c *Collector) SetModelCount(provider string, count int) {
	if !c.enabled() {
		return
	}
	c.providers.SetModelCount(provider, count)
}

// RecordMemoryOperation records a memory store operation.
func (c *Collector) RecordMemoryOperation(op string, err error) {
	if !c.enabled() {
		return
	}
	c.memory.RecordOperation(op, err)
}

// RecordMemoryPruned records entries removed by the pruner.
func (c *Collector) RecordMemoryPruned(n int64) {
	if !c.enabled() {
		return
	}
	c.memory.RecordPruned(n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already tracked or fits under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
