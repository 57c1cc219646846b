package config

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/security/secrets"
)

// Resolver expands credential placeholders using the sources described by
// a SecretsConfig.
type Resolver struct {
	*secrets.Resolver
	files *secrets.FileSource
}

// NewResolver builds a resolver that reads ${secret:name} from the
// environment (under EnvPrefix) and, when FilePath is set, from a secrets
// directory.
func NewResolver(cfg SecretsConfig) (*Resolver, error) {
	sources := []secrets.Source{secrets.NewEnvSource(cfg.EnvPrefix)}

	var files *secrets.FileSource
	if cfg.FilePath != "" {
		var err error
		files, err = secrets.NewFileSource(cfg.FilePath, cfg.Watch)
		if err != nil {
			return nil, err
		}
		sources = append(sources, files)
	}

	return &Resolver{
		Resolver: secrets.NewResolver(sources, secrets.CacheConfig{TTL: cfg.CacheTTL.Std()}),
		files:    files,
	}, nil
}

// Close stops the secrets directory watcher, if any.
func (r *Resolver) Close() error {
	if r.files == nil {
		return nil
	}
	return r.files.Close()
}

// ResolvePlaceholders expands placeholders in every provider's api_key,
// api_base and header values.
//
// A field that cannot be resolved is cleared and reported as a
// *providers.ConfigurationError; all such errors are joined. The rest of
// the configuration is still resolved.
func ResolvePlaceholders(ctx context.Context, cfg *Config, resolver *Resolver) error {
	var errs []error

	for _, name := range sortedNames(cfg.Providers) {
		provider := cfg.Providers[name]

		resolve := func(field string, value *string) {
			resolved, err := resolver.Resolve(ctx, *value)
			if err == nil {
				*value = resolved
				return
			}
			*value = ""
			errs = append(errs, &providers.ConfigurationError{
				Provider: name,
				Field:    field,
				Message:  err.Error(),
			})
		}

		resolve("api_key", &provider.APIKey)
		resolve("api_base", &provider.APIBase)

		if len(provider.Headers) > 0 {
			headers := make(map[string]string, len(provider.Headers))
			for key, value := range provider.Headers {
				resolve("headers."+key, &value)
				headers[key] = value
			}
			provider.Headers = headers
		}

		cfg.Providers[name] = provider
	}

	return errors.Join(errs...)
}

// ProviderConfig returns the resolved adapter configuration for name.
func (c *Config) ProviderConfig(name string) (providers.ProviderConfig, bool) {
	p, ok := c.Providers[name]
	if !ok {
		return providers.ProviderConfig{}, false
	}

	headers := make(map[string]string, len(p.Headers))
	for k, v := range p.Headers {
		headers[k] = v
	}

	return providers.ProviderConfig{
		Name:           name,
		Type:           p.Type,
		BaseURL:        providers.NormalizeBaseURL(p.APIBase),
		APIKey:         p.APIKey,
		DefaultModel:   p.DefaultModel,
		DefaultParams:  providers.Params(p.DefaultParams).Clone(),
		Timeout:        p.Timeout.Std(),
		ConnectTimeout: p.ConnectTimeout.Std(),
		ReadTimeout:    p.ReadTimeout.Std(),
		Headers:        headers,
		HTTPReferer:    p.HTTPReferer,
		AppName:        p.AppName,
	}, true
}

// ToProviderConfigs returns every provider's adapter configuration, sorted
// by name.
func (c *Config) ToProviderConfigs() []providers.ProviderConfig {
	names := sortedNames(c.Providers)
	out := make([]providers.ProviderConfig, 0, len(names))
	for _, name := range names {
		pc, _ := c.ProviderConfig(name)
		out = append(out, pc)
	}
	return out
}

// String summarizes the configuration without credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{default_provider=%s providers=%v retries=%d}",
		c.DefaultProvider, sortedNames(c.Providers), c.DefaultRetries)
}

func sortedNames(m map[string]ProviderConfig) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
