package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MemoryMetrics tracks the conversation memory store.
//
// Metrics:
//   - relay_memory_operations_total: Store operations by op and status
//   - relay_memory_pruned_total: Entries removed by the pruner
type MemoryMetrics struct {
	operations *prometheus.CounterVec
	pruned     prometheus.Counter
}

// NewMemoryMetrics creates and registers memory metrics with the provided registry.
func NewMemoryMetrics(namespace string, registry prometheus.Registerer) *MemoryMetrics {
	mm := &MemoryMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memory_operations_total",
				Help:      "Total number of memory store operations",
			},
			[]string{"op", "status"},
		),

		pruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memory_pruned_total",
				Help:      "Total number of memory entries removed by pruning",
			},
		),
	}

	registry.MustRegister(mm.operations, mm.pruned)

	return mm
}

// RecordOperation records a store operation.
func (mm *MemoryMetrics) RecordOperation(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	mm.operations.WithLabelValues(op, status).Inc()
}

// RecordPruned adds n to the pruned counter.
func (mm *MemoryMetrics) RecordPruned(n int64) {
	if n > 0 {
		mm.pruned.Add(float64(n))
	}
}
