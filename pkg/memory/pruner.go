package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/relay/pkg/telemetry/metrics"
)

// Pruner deletes expired records on a cron schedule.
type Pruner struct {
	store    Store
	schedule string
	metrics  *metrics.Collector
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPruner creates a pruner for store. An empty schedule disables it.
//
// Common schedules:
//   - "*/10 * * * *" - every 10 minutes
//   - "0 * * * *"    - hourly
//   - "@every 30s"   - fixed interval
func NewPruner(store Store, schedule string, collector *metrics.Collector) *Pruner {
	return &Pruner{
		store:    store,
		schedule: schedule,
		metrics:  collector,
		logger:   slog.Default().With("component", "memory.pruner"),
		cron:     cron.New(),
	}
}

// Start schedules pruning until ctx is cancelled or Stop is called.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.schedule == "" {
		p.logger.Info("prune schedule not configured, skipping pruner")
		return nil
	}
	if p.running {
		return nil
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.schedule, err)
	}
	if _, err := p.cron.AddFunc(p.schedule, func() { p.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true
	p.logger.Info("memory pruner started", "schedule", p.schedule)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Prune runs one pass immediately.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	n, err := p.store.PruneExpired(ctx)
	if err != nil {
		return 0, err
	}
	p.metrics.RecordMemoryPruned(n)
	return n, nil
}

func (p *Pruner) run(ctx context.Context) {
	n, err := p.Prune(ctx)
	if err != nil {
		p.logger.Error("scheduled pruning failed", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("expired memories pruned", "deleted_count", n)
	} else {
		p.logger.Debug("scheduled pruning completed, nothing expired")
	}
}

// Stop halts the schedule and waits for a running pass.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("memory pruner stopped")
}

// IsRunning reports whether the schedule is active.
func (p *Pruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextRun returns the next scheduled pass, or the zero time when stopped.
func (p *Pruner) NextRun() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if !p.running || len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
