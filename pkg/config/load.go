package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "RELAY_"

// LoadConfig loads configuration from a YAML file.
//
// The loading sequence is:
//  1. Decode YAML onto the built-in defaults
//  2. Apply RELAY_* environment overrides
//  3. Fill remaining zero values and inherit global timeouts
//  4. Resolve ${VAR} and ${secret:name} placeholders
//  5. Validate
//
// Placeholders that cannot be resolved do not fail the load: the field is
// left empty and a warning is logged, so the provider is simply
// unavailable. Use ResolvePlaceholders directly to treat them as errors.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := finish(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns Default() when the file does not
// exist. Any other failure is returned.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	cfg, err := LoadConfig(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("configuration file not found, using built-in defaults", "path", path)

		cfg = Default()
		applyEnvOverrides(cfg)
		ApplyDefaults(cfg)
		if err := finish(ctx, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

// Parse decodes YAML onto the defaults and applies environment overrides.
// Placeholders are not resolved.
func Parse(data []byte) (*Config, error) {
	cfg := newBase()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	return cfg, nil
}

func finish(ctx context.Context, cfg *Config) error {
	resolver, err := NewResolver(cfg.Secrets)
	if err != nil {
		return fmt.Errorf("failed to set up secret resolution: %w", err)
	}
	defer resolver.Close()

	if err := ResolvePlaceholders(ctx, cfg, resolver); err != nil {
		for _, e := range unwrapJoined(err) {
			slog.Warn("unresolved configuration placeholder", "error", e)
		}
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// applyEnvOverrides applies RELAY_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("RELAY_DEFAULT_PROVIDER"); val != "" {
		cfg.DefaultProvider = val
	}
	if val := os.Getenv("RELAY_DEFAULT_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.DefaultRetries = i
		}
	}
	envDuration("RELAY_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	envDuration("RELAY_CONNECT_TIMEOUT", &cfg.ConnectTimeout)
	envDuration("RELAY_READ_TIMEOUT", &cfg.ReadTimeout)

	applyProviderEnvOverrides(cfg)

	envDuration("RELAY_HEALTH_INTERVAL", &cfg.Health.Interval)

	// Telemetry overrides
	if val := os.Getenv("RELAY_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("RELAY_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	envBool("RELAY_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("RELAY_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	if val := os.Getenv("RELAY_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("RELAY_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	// Memory overrides
	if val := os.Getenv("RELAY_MEMORY_DRIVER"); val != "" {
		cfg.Memory.Driver = val
	}
	if val := os.Getenv("RELAY_MEMORY_PATH"); val != "" {
		cfg.Memory.Path = val
	}
	if val := os.Getenv("RELAY_MEMORY_NAMESPACE"); val != "" {
		cfg.Memory.Namespace = val
	}

	// Secrets overrides
	if val := os.Getenv("RELAY_SECRETS_FILE_PATH"); val != "" {
		cfg.Secrets.FilePath = val
	}
	envBool("RELAY_SECRETS_WATCH", &cfg.Secrets.Watch)
}

// providerEnvFields are the per-provider override suffixes. Longer
// suffixes come first so that CONNECT_TIMEOUT is not taken for TIMEOUT.
var providerEnvFields = []string{
	"_CONNECT_TIMEOUT",
	"_READ_TIMEOUT",
	"_DEFAULT_MODEL",
	"_API_BASE",
	"_API_KEY",
	"_TIMEOUT",
	"_TYPE",
}

// applyProviderEnvOverrides applies RELAY_PROVIDERS_<NAME>_<FIELD>
// variables. NAME is the upper-cased provider name with '-' written as
// '_'. A variable naming an unconfigured provider adds it.
func applyProviderEnvOverrides(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	byEnvName := make(map[string]string, len(cfg.Providers))
	for name := range cfg.Providers {
		byEnvName[envName(name)] = name
	}

	const prefix = EnvPrefix + "PROVIDERS_"

	environ := os.Environ()
	sort.Strings(environ)

	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || val == "" || !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)

		for _, field := range providerEnvFields {
			if !strings.HasSuffix(rest, field) || len(rest) == len(field) {
				continue
			}

			upper := strings.TrimSuffix(rest, field)
			name, known := byEnvName[upper]
			if !known {
				name = strings.ToLower(upper)
				byEnvName[upper] = name
			}

			provider := cfg.Providers[name]
			setProviderField(&provider, field, val)
			cfg.Providers[name] = provider
			break
		}
	}
}

func setProviderField(p *ProviderConfig, field, val string) {
	switch field {
	case "_API_BASE":
		p.APIBase = val
	case "_API_KEY":
		p.APIKey = val
	case "_DEFAULT_MODEL":
		p.DefaultModel = val
	case "_TYPE":
		p.Type = val
	case "_TIMEOUT":
		setDuration(val, &p.Timeout)
	case "_CONNECT_TIMEOUT":
		setDuration(val, &p.ConnectTimeout)
	case "_READ_TIMEOUT":
		setDuration(val, &p.ReadTimeout)
	}
}

func envName(provider string) string {
	return strings.ToUpper(strings.ReplaceAll(provider, "-", "_"))
}

func envDuration(key string, dst *Duration) {
	if val := os.Getenv(key); val != "" {
		setDuration(val, dst)
	}
}

// setDuration accepts "30s" or a bare number of seconds.
func setDuration(val string, dst *Duration) {
	if d, err := time.ParseDuration(val); err == nil {
		*dst = Duration(d)
		return
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		*dst = Duration(f * float64(time.Second))
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
