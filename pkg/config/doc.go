// Package config provides configuration management for relay.
//
// Configuration is read from a YAML file, overridden from the environment,
// completed with defaults, has its credential placeholders resolved, and
// is validated. There is no global instance: load a *Config and pass it to
// the components that need it.
//
//	cfg, err := config.LoadConfig(ctx, "relay.yaml")
//	if err != nil {
//	    return err
//	}
//	d := dispatcher.New(cfg)
//
// LoadOrDefault falls back to Default(), a single OpenAI provider keyed
// from OPENAI_API_KEY, when the file does not exist.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RELAY_SECTION_FIELD:
//
//   - RELAY_DEFAULT_PROVIDER overrides default_provider
//   - RELAY_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//   - RELAY_PROVIDERS_MY_VENDOR_API_BASE overrides providers.my-vendor.api_base
//   - RELAY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// A provider override naming a provider absent from the file adds it.
//
// # Placeholders
//
// api_key, api_base and header values may contain ${VAR} (environment) or
// ${secret:name} (environment under secrets.env_prefix, then the secrets
// directory). An unresolvable placeholder leaves the field empty and is
// logged; the provider is then unavailable rather than the load failing.
//
// # Timeouts
//
// Durations accept Go syntax ("90s") or a bare number of seconds (90).
// Providers inherit request_timeout, connect_timeout and read_timeout from
// the top level when they set none.
//
// # Example Configuration
//
//	default_provider: openai
//	default_retries: 3
//	connect_timeout: 10
//	read_timeout: 120
//
//	providers:
//	  openai:
//	    api_base: https://api.openai.com/v1
//	    api_key: ${OPENAI_API_KEY}
//	    default_model: gpt-4o-mini
//	    default_params:
//	      temperature: 0.7
//	      max_tokens: 2048
//	  claude:
//	    type: anthropic
//	    api_key: ${secret:anthropic-api-key}
//	    default_model: claude-3-5-sonnet-latest
//	  local:
//	    type: ollama
//	    api_base: http://localhost:11434/api
//	    default_model: llama3
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
