package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/dispatcher"
	"mercator-hq/relay/pkg/memory"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// app holds what every command builds from the configuration file.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	formatter cli.Formatter
	format    cli.OutputFormat
	out       io.Writer
}

// setup loads the configuration and installs logging, metrics and tracing.
// The caller must defer rt.close.
func setup(cmd *cobra.Command) (*app, error) {
	format, err := cli.ParseFormat(outputFlag)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadOrDefault(cmd.Context(), cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		LoggingConfig: cfg.Telemetry.Logging,
		Writer:        os.Stderr,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	tracer, err := tracing.New(cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics.NewCollector(cfg.Telemetry.Metrics, nil),
		tracer:    tracer,
		formatter: cli.NewFormatter(format),
		format:    format,
		out:       cmd.OutOrStdout(),
	}, nil
}

// close flushes spans and writes the metrics textfile.
func (rt *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rt.tracer.Shutdown(ctx); err != nil {
		rt.logger.Warn("failed to flush traces", "error", err)
	}
	if metricsOut != "" {
		if err := rt.metrics.WriteTextfile(metricsOut); err != nil {
			rt.logger.Warn("failed to write metrics", "path", metricsOut, "error", err)
		}
	}
}

func (rt *app) dispatcher() (*dispatcher.Dispatcher, error) {
	return dispatcher.New(rt.cfg,
		dispatcher.WithLogger(rt.logger),
		dispatcher.WithMetrics(rt.metrics),
		dispatcher.WithTracer(rt.tracer),
	)
}

func (rt *app) memoryStore(agent string) (memory.Store, error) {
	opts := []memory.Option{
		memory.WithLogger(rt.logger),
		memory.WithMetrics(rt.metrics),
	}
	if agent != "" {
		opts = append(opts, memory.WithNamespace(agent))
	}
	store, err := memory.Open(rt.cfg.Memory, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}
	return store, nil
}

// print writes data with the selected formatter.
func (rt *app) print(data any) error {
	return rt.formatter.FormatTo(rt.out, data)
}
