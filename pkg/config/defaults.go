package config

import "time"

// Default values for configuration fields.
const (
	// Global defaults
	DefaultProviderName   = "openai"
	DefaultRetryBudget    = 3
	DefaultRequestTimeout = 60 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 120 * time.Second

	// Fallback provider defaults
	DefaultOpenAIBase        = "https://api.openai.com/v1"
	DefaultOpenAIModel       = "gpt-3.5-turbo"
	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 2048

	// Health defaults
	DefaultHealthTimeout = 10 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsEnabled      = true
	DefaultMetricsNamespace    = "relay"
	DefaultTracingEndpoint     = "localhost:4317"
	DefaultTracingServiceName  = "relay"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingTimeout      = 10 * time.Second

	// Memory defaults
	DefaultMemoryDriver        = "sqlite"
	DefaultMemoryPath          = "data/memory.db"
	DefaultMemoryNamespace     = "relay"
	DefaultMemoryPruneSchedule = "*/10 * * * *"
	DefaultMemoryBusyTimeout   = 5 * time.Second
	DefaultMemoryMaxOpenConns  = 4

	// Secrets defaults
	DefaultSecretsEnvPrefix = "RELAY_SECRET_"
	DefaultSecretsCacheTTL  = 5 * time.Minute
)

// DefaultLatencyBuckets are the request latency histogram buckets in seconds.
var DefaultLatencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// Default returns the configuration used when no file is available: a
// single OpenAI provider whose key comes from OPENAI_API_KEY.
func Default() *Config {
	cfg := newBase()
	cfg.DefaultProvider = DefaultProviderName
	cfg.Providers = map[string]ProviderConfig{
		DefaultProviderName: {
			APIBase:      DefaultOpenAIBase,
			APIKey:       "${OPENAI_API_KEY}",
			DefaultModel: DefaultOpenAIModel,
			DefaultParams: map[string]any{
				"temperature": DefaultOpenAITemperature,
				"max_tokens":  DefaultOpenAIMaxTokens,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// newBase returns the struct YAML is decoded onto. Boolean fields whose
// default is true are set here, since ApplyDefaults cannot tell an
// explicit false from an absent key.
func newBase() *Config {
	return &Config{
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Insecure: true},
		},
	}
}

// ApplyDefaults sets every zero-valued field to its default and copies
// the global timeouts onto providers that set none.
// It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = DefaultProviderName
	}
	if cfg.DefaultRetries == 0 {
		cfg.DefaultRetries = DefaultRetryBudget
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = Duration(DefaultConnectTimeout)
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = Duration(DefaultReadTimeout)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for name, provider := range cfg.Providers {
		if provider.Timeout == 0 {
			provider.Timeout = cfg.RequestTimeout
		}
		if provider.ConnectTimeout == 0 {
			provider.ConnectTimeout = cfg.ConnectTimeout
		}
		if provider.ReadTimeout == 0 {
			provider.ReadTimeout = cfg.ReadTimeout
		}
		cfg.Providers[name] = provider
	}

	if cfg.Health.Timeout == 0 {
		cfg.Health.Timeout = Duration(DefaultHealthTimeout)
	}

	applyTelemetryDefaults(&cfg.Telemetry)

	if cfg.Memory.Driver == "" {
		cfg.Memory.Driver = DefaultMemoryDriver
	}
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = DefaultMemoryPath
	}
	if cfg.Memory.Namespace == "" {
		cfg.Memory.Namespace = DefaultMemoryNamespace
	}
	if cfg.Memory.PruneSchedule == "" {
		cfg.Memory.PruneSchedule = DefaultMemoryPruneSchedule
	}
	if cfg.Memory.BusyTimeout == 0 {
		cfg.Memory.BusyTimeout = Duration(DefaultMemoryBusyTimeout)
	}
	if cfg.Memory.MaxOpenConns == 0 {
		cfg.Memory.MaxOpenConns = DefaultMemoryMaxOpenConns
	}

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = Duration(DefaultSecretsCacheTTL)
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.LatencyBuckets) == 0 {
		t.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}

	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = Duration(DefaultTracingTimeout)
	}
}
