package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// Dispatcher is the single entry point for chat completions. It owns the
// adapter table built from one Config and drives the retry loop; adapters
// and the HTTP client are shared, every call's state is local.
//
// A Dispatcher is safe for concurrent use.
type Dispatcher struct {
	cfg      *config.Config
	registry *providerfactory.Registry
	manager  *providerfactory.Manager
	client   *providers.HTTPClient

	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	sleep   Sleeper

	stats *Stats
}

// New builds a dispatcher over cfg. Providers whose adapter cannot be
// constructed are logged and left unavailable; they do not fail New.
func New(cfg *config.Config, opts ...Option) (*Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("dispatcher config cannot be nil")
	}

	d := &Dispatcher{
		cfg:   cfg,
		sleep: sleepContext,
		stats: NewStats(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With("component", "dispatcher")

	if d.registry == nil {
		d.registry = providerfactory.NewRegistry()
	}
	if d.client == nil {
		clientCfg := providers.ClientConfig{DefaultConnectTimeout: cfg.ConnectTimeout.Std()}
		if d.tracer.Enabled() {
			clientCfg.WrapTransport = tracing.Transport
		}
		d.client = providers.NewHTTPClient(clientCfg)
	}

	d.manager = providerfactory.NewManager(d.registry)
	if err := d.manager.LoadFromConfig(cfg.ToProviderConfigs()); err != nil {
		d.logger.Warn("some providers are unavailable", "error", err)
	}

	d.logger.Info("dispatcher initialized",
		"providers", d.manager.ProviderCount(),
		"default_provider", cfg.DefaultProvider,
	)

	return d, nil
}

// Close releases pooled connections.
func (d *Dispatcher) Close() {
	d.client.CloseIdleConnections()
}

// Stats returns the dispatcher's call counters.
func (d *Dispatcher) Stats() *Stats {
	return d.stats
}

// GetCompletion sends prompt as a single user message (preceded by the
// WithSystemPrompt message, if any) and returns the generated text.
func (d *Dispatcher) GetCompletion(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	messages := make([]providers.Message, 0, 2)
	if o.system != "" {
		messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: o.system})
	}
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: prompt})

	resp, err := d.GetChatCompletion(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	return resp.Choice.Content, nil
}

// GetChatCompletion sends messages to the selected provider, retrying
// transport timeouts and connection failures up to the attempt budget.
// Every other failure is returned after the first attempt.
func (d *Dispatcher) GetChatCompletion(ctx context.Context, messages []providers.Message, opts ...CallOption) (*providers.ChatResponse, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return d.run(ctx, newCall(messages, o))
}

// ListAvailableProviders returns the providers that have a live adapter,
// sorted by name.
func (d *Dispatcher) ListAvailableProviders() []string {
	names := d.manager.GetProviderNames()
	available := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := d.manager.GetAdapter(name); ok {
			available = append(available, name)
		}
	}
	return available
}

// GetProviderConfig returns the resolved configuration of a provider.
// Unknown names are an *UnsupportedProviderError; there is no fallback.
func (d *Dispatcher) GetProviderConfig(name string) (providers.ProviderConfig, error) {
	cfg, ok := d.manager.GetConfig(name)
	if !ok {
		return providers.ProviderConfig{}, &providers.UnsupportedProviderError{Provider: name}
	}
	return cfg, nil
}

// IsProviderAvailable reports whether name is configured, has a live
// adapter and has a credential (or its adapter needs none).
func (d *Dispatcher) IsProviderAvailable(name string) bool {
	cfg, ok := d.manager.GetConfig(name)
	if !ok {
		return false
	}
	adapter, ok := d.manager.GetAdapter(name)
	if !ok {
		return false
	}
	return hasCredential(adapter, cfg)
}

func hasCredential(adapter providers.Adapter, cfg providers.ProviderConfig) bool {
	return !adapter.RequiresCredential() || strings.TrimSpace(cfg.APIKey) != ""
}

// resolve picks the provider for a call. Unknown names fall back to the
// default provider; a provider without a live adapter or without a
// required credential is a configuration error.
func (d *Dispatcher) resolve(c *call) error {
	name := c.opts.provider
	if name == "" {
		name = d.cfg.DefaultProvider
	}

	cfg, ok := d.manager.GetConfig(name)
	if !ok {
		fallback := d.cfg.DefaultProvider
		d.logger.Warn("provider not available, falling back to default",
			"requested", name,
			"fallback", fallback,
		)
		d.stats.IncrementFallback()

		cfg, ok = d.manager.GetConfig(fallback)
		if !ok {
			return &providers.ConfigurationError{
				Provider: fallback,
				Field:    "default_provider",
				Message:  "default provider is not configured",
			}
		}
		name = fallback
	}

	adapter, ok := d.manager.GetAdapter(name)
	if !ok {
		return &providers.ConfigurationError{
			Provider: name,
			Field:    "type",
			Message:  "provider adapter could not be constructed",
		}
	}

	if !hasCredential(adapter, cfg) {
		return &providers.ConfigurationError{
			Provider: name,
			Field:    "api_key",
			Message:  "no API key configured",
		}
	}

	c.provider = name
	c.adapter = adapter
	c.config = cfg
	return nil
}

// build merges parameters and computes the model, attempt budget and
// timeouts of a call.
func (d *Dispatcher) build(c *call) error {
	c.model = c.opts.model
	if c.model == "" {
		c.model = c.config.DefaultModel
	}
	if c.model == "" {
		return &providers.ConfigurationError{
			Provider: c.provider,
			Field:    "default_model",
			Message:  "no model given and no default model configured",
		}
	}

	merged := c.config.DefaultParams.Clone()
	for k, v := range c.opts.params {
		merged[k] = v
	}

	reserved, params, err := extractReserved(merged)
	if err != nil {
		return &providers.ConfigurationError{Provider: c.provider, Field: "params", Message: err.Error()}
	}
	c.params = params

	c.retries = d.retryBudget(c.opts, reserved)
	c.timeouts = shapeTimeouts(c.opts, reserved, c.config)

	return nil
}

// retryBudget returns call option > merged params > global default, never
// below one attempt.
func (d *Dispatcher) retryBudget(o callOptions, reserved reservedParams) int {
	retries := d.cfg.DefaultRetries
	if retries <= 0 {
		retries = config.DefaultRetryBudget
	}
	if reserved.retries != nil {
		retries = *reserved.retries
	}
	if o.retries != nil {
		retries = *o.retries
	}
	if retries < 1 {
		retries = 1
	}
	return retries
}
