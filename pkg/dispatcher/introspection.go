package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/health"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

var (
	errNoModels     = errors.New("model listing is empty")
	errNoAdapter    = errors.New("provider adapter could not be constructed")
	errNoCredential = errors.New("no API key configured")
)

// ListAvailableModels asks one provider for its models. It makes a single
// attempt and never fails: unknown providers, transport errors, non-2xx
// replies and unreadable listings all yield an empty slice.
func (d *Dispatcher) ListAvailableModels(ctx context.Context, provider string) []providers.ModelInfo {
	models, err := d.listModels(ctx, provider)
	if err != nil {
		d.logger.WarnContext(ctx, "model listing failed",
			"provider", provider,
			"kind", providers.KindOf(err).String(),
			"error", err,
		)
		return []providers.ModelInfo{}
	}
	return models
}

// ListAllModels lists the models of every provider with a live adapter,
// concurrently.
func (d *Dispatcher) ListAllModels(ctx context.Context) map[string][]providers.ModelInfo {
	names := d.ListAvailableProviders()
	out := make(map[string][]providers.ModelInfo, len(names))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			models := d.ListAvailableModels(ctx, name)

			mu.Lock()
			out[name] = models
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	return out
}

// listModels performs the single listing attempt and reports why it
// failed.
func (d *Dispatcher) listModels(ctx context.Context, name string) ([]providers.ModelInfo, error) {
	cfg, ok := d.manager.GetConfig(name)
	if !ok {
		return nil, &providers.UnsupportedProviderError{Provider: name}
	}
	adapter, ok := d.manager.GetAdapter(name)
	if !ok {
		return nil, errNoAdapter
	}

	ctx, span := d.tracer.Start(ctx, tracing.SpanModels, trace.WithAttributes(
		attribute.String(tracing.AttrProvider, name),
	))
	defer span.End()

	timeouts := providers.Timeouts{Connect: cfg.ConnectTimeout, Read: cfg.Timeout}
	if timeouts.Read == 0 {
		timeouts = cfg.DefaultTimeouts()
	}

	models, err := d.client.FetchModels(ctx, adapter, timeouts)
	if err != nil {
		tracing.SetErrorAttributes(span, err, providers.KindOf(err).String())
		return nil, err
	}

	d.metrics.SetModelCount(name, len(models))
	span.SetAttributes(attribute.Int("relay.models.count", len(models)))
	return models, nil
}

// CheckHealth probes every configured provider concurrently. A provider is
// healthy iff its model listing succeeds with at least one entry.
func (d *Dispatcher) CheckHealth(ctx context.Context) map[string]bool {
	return d.HealthReport(ctx).Healthy()
}

// HealthReport is CheckHealth with per-provider durations and failure
// reasons. Providers without a live adapter or credential are reported
// unhealthy without a network call.
func (d *Dispatcher) HealthReport(ctx context.Context) health.Report {
	ctx, span := d.tracer.Start(ctx, tracing.SpanHealth)
	defer span.End()

	checker := health.New(d.cfg.Health.Timeout.Std())
	for _, name := range d.manager.GetProviderNames() {
		checker.RegisterCheck(name, d.healthCheck(name))
	}

	report := checker.Run(ctx)
	for name, result := range report.Checks {
		d.metrics.UpdateProviderHealth(name, result.Healthy)
		if !result.Healthy {
			d.logger.WarnContext(ctx, "provider unhealthy",
				"provider", name,
				"reason", result.Message,
				"duration", result.Duration.Round(time.Millisecond),
			)
		}
	}
	span.SetAttributes(attribute.String("relay.health.status", report.Status))

	return report
}

func (d *Dispatcher) healthCheck(name string) health.CheckFunc {
	return func(ctx context.Context) error {
		cfg, _ := d.manager.GetConfig(name)
		adapter, ok := d.manager.GetAdapter(name)
		if !ok {
			return errNoAdapter
		}
		if !hasCredential(adapter, cfg) {
			return errNoCredential
		}

		models, err := d.listModels(ctx, name)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			return errNoModels
		}
		return nil
	}
}
