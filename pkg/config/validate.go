package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "providers.openai.api_base").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the configuration and returns a ValidationError holding
// every problem found, or nil.
//
// Credentials are not checked here: a provider without a key is valid
// configuration and is reported as unavailable at call time.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGlobals(cfg)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateMemory(&cfg.Memory)...)

	if cfg.Health.Interval < 0 {
		errs = append(errs, FieldError{Field: "health.interval", Message: "interval must be non-negative"})
	}
	if cfg.Health.Timeout < 0 {
		errs = append(errs, FieldError{Field: "health.timeout", Message: "timeout must be non-negative"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateGlobals(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.DefaultProvider == "" {
		errs = append(errs, FieldError{Field: "default_provider", Message: "default provider is required"})
	}
	if cfg.DefaultRetries < 1 {
		errs = append(errs, FieldError{Field: "default_retries", Message: "retry budget must be at least 1"})
	}

	timeouts := []struct {
		field string
		value Duration
	}{
		{"request_timeout", cfg.RequestTimeout},
		{"connect_timeout", cfg.ConnectTimeout},
		{"read_timeout", cfg.ReadTimeout},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			errs = append(errs, FieldError{Field: t.field, Message: "timeout must be non-negative"})
		}
	}

	return errs
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		return append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
	}

	for _, name := range sortedNames(providers) {
		p := providers[name]
		prefix := "providers." + name

		if p.APIBase != "" {
			u, err := url.Parse(p.APIBase)
			if err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".api_base",
					Message: fmt.Sprintf("invalid URL: %v", err),
				})
			} else if u.Scheme != "http" && u.Scheme != "https" {
				errs = append(errs, FieldError{
					Field:   prefix + ".api_base",
					Message: fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme),
				})
			} else if u.Host == "" {
				errs = append(errs, FieldError{
					Field:   prefix + ".api_base",
					Message: "URL must include a host",
				})
			}
		}

		if p.Timeout < 0 {
			errs = append(errs, FieldError{Field: prefix + ".timeout", Message: "timeout must be non-negative"})
		}
		if p.ConnectTimeout < 0 {
			errs = append(errs, FieldError{Field: prefix + ".connect_timeout", Message: "timeout must be non-negative"})
		}
		if p.ReadTimeout < 0 {
			errs = append(errs, FieldError{Field: prefix + ".read_timeout", Message: "timeout must be non-negative"})
		}

		if v, ok := p.DefaultParams["retries"]; ok {
			if n, isInt := v.(int); !isInt || n < 1 {
				errs = append(errs, FieldError{
					Field:   prefix + ".default_params.retries",
					Message: "retries must be an integer of at least 1",
				})
			}
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}

func validateMemory(cfg *MemoryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case "sqlite", "sqlite3":
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "memory.path", Message: "path is required for SQLite drivers"})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "memory.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite', 'sqlite3', or 'memory'", cfg.Driver),
		})
	}

	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "memory.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "memory.max_open_conns", Message: "must be non-negative"})
	}

	return errs
}
