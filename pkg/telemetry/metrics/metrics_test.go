package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:        true,
		Namespace:      "test",
		LatencyBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func TestNewCollector_Defaults(t *testing.T) {
	collector := NewCollector(config.MetricsConfig{Enabled: true}, nil)

	if collector.Registry() == nil {
		t.Fatal("expected a registry to be created")
	}
	if collector.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", collector.config.Namespace)
	}
	if len(collector.config.LatencyBuckets) == 0 {
		t.Error("expected default latency buckets")
	}
}

func TestCollector_RecordCall(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		provider string
		model    string
		outcome  string
		attempts int
	}{
		{"openai", "gpt-4", OutcomeSuccess, 1},
		{"openai", "gpt-4", OutcomeSuccess, 3},
		{"anthropic", "claude-3", OutcomeExhausted, 4},
		{"gemini", "gemini-pro", OutcomeError, 1},
	}
	for _, tt := range tests {
		collector.RecordCall(tt.provider, tt.model, tt.outcome, tt.attempts, 200*time.Millisecond)
	}

	if got := testutil.ToFloat64(collector.calls.callsTotal.WithLabelValues("openai", "gpt-4", OutcomeSuccess)); got != 2 {
		t.Errorf("expected 2 successful openai calls, got %v", got)
	}
	if got := testutil.ToFloat64(collector.calls.callsTotal.WithLabelValues("anthropic", "claude-3", OutcomeExhausted)); got != 1 {
		t.Errorf("expected 1 exhausted call, got %v", got)
	}
	if n := testutil.CollectAndCount(collector.calls.attempts); n != 3 {
		t.Errorf("expected attempt histograms for 3 providers, got %d", n)
	}
}

func TestCollector_RecordTokens(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordTokens("openai", "gpt-4", 10, 20)
	collector.RecordTokens("openai", "gpt-4", -1, -1)

	if got := testutil.ToFloat64(collector.calls.tokensTotal.WithLabelValues("openai", "gpt-4", "prompt")); got != 10 {
		t.Errorf("expected 10 prompt tokens, got %v", got)
	}
	if got := testutil.ToFloat64(collector.calls.tokensTotal.WithLabelValues("openai", "gpt-4", "completion")); got != 20 {
		t.Errorf("expected 20 completion tokens, got %v", got)
	}
}

func TestCollector_ProviderMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordProviderError("openai", "timeout")
	collector.RecordProviderError("openai", "timeout")
	collector.RecordRetry("openai", "timeout")
	collector.UpdateProviderHealth("openai", true)
	collector.UpdateProviderHealth("ollama", false)
	collector.SetModelCount("openai", 42)
	collector.RecordAttempt("openai", "gpt-4", 300*time.Millisecond)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"errors", testutil.ToFloat64(collector.providers.errors.WithLabelValues("openai", "timeout")), 2},
		{"retries", testutil.ToFloat64(collector.providers.retries.WithLabelValues("openai", "timeout")), 1},
		{"healthy", testutil.ToFloat64(collector.providers.health.WithLabelValues("openai")), 1},
		{"unhealthy", testutil.ToFloat64(collector.providers.health.WithLabelValues("ollama")), 0},
		{"models", testutil.ToFloat64(collector.providers.models.WithLabelValues("openai")), 42},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
	if n := testutil.CollectAndCount(collector.providers.latency); n != 1 {
		t.Errorf("expected one latency series, got %d", n)
	}
}

func TestCollector_MemoryMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordMemoryOperation("save", nil)
	collector.RecordMemoryOperation("save", errors.New("disk full"))
	collector.RecordMemoryPruned(5)
	collector.RecordMemoryPruned(0)

	if got := testutil.ToFloat64(collector.memory.operations.WithLabelValues("save", "error")); got != 1 {
		t.Errorf("expected 1 failed save, got %v", got)
	}
	if got := testutil.ToFloat64(collector.memory.pruned); got != 5 {
		t.Errorf("expected 5 pruned, got %v", got)
	}
}

func TestCollector_DisabledAndNil(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	disabled := NewCollector(cfg, prometheus.NewRegistry())
	disabled.RecordCall("openai", "gpt-4", OutcomeSuccess, 1, time.Second)

	if n := testutil.CollectAndCount(disabled.calls.callsTotal); n != 0 {
		t.Errorf("expected no series when disabled, got %d", n)
	}

	var nilCollector *Collector
	nilCollector.RecordCall("openai", "gpt-4", OutcomeSuccess, 1, time.Second)
	nilCollector.RecordRetry("openai", "timeout")
	nilCollector.UpdateProviderHealth("openai", true)
}

func TestCollector_CardinalityLimit(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	for i := 0; i < 5; i++ {
		collector.RecordCall("openai", fmt.Sprintf("model-%d", i), OutcomeSuccess, 1, time.Second)
	}

	if got := testutil.ToFloat64(collector.calls.callsTotal.WithLabelValues("openai", otherLabel, OutcomeSuccess)); got != 3 {
		t.Errorf("expected 3 calls folded into %q, got %v", otherLabel, got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("expected first two label sets to be allowed")
	}
	if cl.Allow("c") {
		t.Error("expected third label set to be rejected")
	}
	if !cl.Allow("a") {
		t.Error("expected known label set to stay allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("expected count 2, got %d", cl.Count())
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordCall("openai", "gpt-4", OutcomeSuccess, 1, time.Second)

	path := filepath.Join(t.TempDir(), "relay.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "test_calls_total") {
		t.Errorf("expected calls metric in output, got:\n%s", data)
	}
}
