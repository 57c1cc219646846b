package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for relay.
// It holds the provider table and the global defaults every provider
// inherits from, plus the telemetry, memory and secrets sections.
type Config struct {
	// DefaultProvider is used when a call does not name a provider, and
	// is the adapter unknown provider names fall back to.
	// Default: "openai"
	DefaultProvider string `yaml:"default_provider"`

	// DefaultRetries is the total attempt budget for a chat completion
	// when neither the call nor the provider's default_params set one.
	// Default: 3
	DefaultRetries int `yaml:"default_retries"`

	// RequestTimeout is inherited by providers that set no timeout.
	// Default: 60s
	RequestTimeout Duration `yaml:"request_timeout"`

	// ConnectTimeout is inherited by providers that set no connect_timeout.
	// Default: 10s
	ConnectTimeout Duration `yaml:"connect_timeout"`

	// ReadTimeout is inherited by providers that set no read_timeout.
	// Default: 120s
	ReadTimeout Duration `yaml:"read_timeout"`

	// Providers maps provider names to their configuration.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Health configures the periodic provider health monitor.
	Health HealthConfig `yaml:"health"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Memory configures the long-term memory store.
	Memory MemoryConfig `yaml:"memory"`

	// Secrets configures placeholder resolution for credentials.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ProviderConfig contains configuration for a single LLM provider.
type ProviderConfig struct {
	// Type selects the adapter (openai, anthropic, gemini, ollama, qwen,
	// dashscope, deepseek, openrouter, doubao, generic). Empty means the
	// provider's key in the providers map. Unknown types use the
	// OpenAI-compatible adapter.
	Type string `yaml:"type"`

	// APIBase is the vendor's base URL.
	// Example: "https://api.openai.com/v1"
	APIBase string `yaml:"api_base"`

	// APIKey is the credential. Use a placeholder rather than a literal:
	// "${OPENAI_API_KEY}" or "${secret:openai-api-key}".
	APIKey string `yaml:"api_key"`

	// DefaultModel is used when a call does not name a model.
	DefaultModel string `yaml:"default_model"`

	// DefaultParams are merged under per-call parameters. The reserved
	// keys retries, timeout and connect_timeout tune the dispatcher and
	// are never sent to the vendor.
	DefaultParams map[string]any `yaml:"default_params"`

	// Timeout is the read timeout used when read_timeout is unset.
	Timeout Duration `yaml:"timeout"`

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout Duration `yaml:"connect_timeout"`

	// ReadTimeout bounds reading the response.
	ReadTimeout Duration `yaml:"read_timeout"`

	// Headers are extra static headers sent with every request.
	Headers map[string]string `yaml:"headers"`

	// HTTPReferer and AppName are sent by vendors that attribute traffic
	// (OpenRouter's HTTP-Referer and X-Title).
	HTTPReferer string `yaml:"http_referer"`
	AppName     string `yaml:"app_name"`
}

// HealthConfig configures the background health monitor.
type HealthConfig struct {
	// Interval between probe rounds. Zero disables the monitor.
	// Default: 0
	Interval Duration `yaml:"interval"`

	// Timeout bounds a single provider probe.
	// Default: 10s
	Timeout Duration `yaml:"timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPatterns are extra patterns masked in log attributes, on top
	// of the built-in API key and bearer token patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether provider metrics are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "relay"
	Namespace string `yaml:"namespace"`

	// LatencyBuckets are the histogram buckets for request latency (seconds).
	// Default: [0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "relay"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS towards the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds a single export.
	// Default: 10s
	Timeout Duration `yaml:"timeout"`
}

// MemoryConfig configures the long-term memory store.
type MemoryConfig struct {
	// Driver selects the store.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo), "memory"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file for the SQLite drivers.
	// Default: "data/memory.db"
	Path string `yaml:"path"`

	// Namespace is the agent id keys are prefixed with.
	// Default: "relay"
	Namespace string `yaml:"namespace"`

	// PruneSchedule is a cron expression for deleting expired records.
	// Empty disables pruning.
	// Default: "*/10 * * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout Duration `yaml:"busy_timeout"`

	// MaxOpenConns caps the SQLite connection pool.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`
}

// SecretsConfig configures credential placeholder resolution.
type SecretsConfig struct {
	// EnvPrefix is prepended to ${secret:name} lookups in the environment.
	// Default: "RELAY_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// FilePath is a directory holding one file per secret. Optional.
	FilePath string `yaml:"file_path"`

	// Watch reloads secret files when they change.
	Watch bool `yaml:"watch"`

	// CacheTTL is how long resolved secrets are cached.
	// Default: 5m
	CacheTTL Duration `yaml:"cache_ttl"`
}

// Duration is a time.Duration that unmarshals from either a Go duration
// string ("90s") or a bare number of seconds (90).
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String formats d like time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}

	switch node.ShortTag() {
	case "!!int", "!!float":
		seconds, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
		}
		*d = Duration(seconds * float64(time.Second))
		return nil
	default:
		parsed, err := time.ParseDuration(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
		}
		*d = Duration(parsed)
		return nil
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
