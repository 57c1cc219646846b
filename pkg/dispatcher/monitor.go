package dispatcher

import (
	"context"
	"sync"
	"time"

	"mercator-hq/relay/pkg/telemetry/health"
)

// HealthMonitor re-runs HealthReport on a fixed interval and keeps the
// latest result.
type HealthMonitor struct {
	dispatcher *Dispatcher
	interval   time.Duration
	onReport   func(health.Report)

	mu     sync.RWMutex
	latest health.Report

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthMonitor creates a monitor. A zero interval uses the configured
// health.interval. onReport, when non-nil, is called after every round.
func NewHealthMonitor(d *Dispatcher, interval time.Duration, onReport func(health.Report)) *HealthMonitor {
	if interval <= 0 {
		interval = d.cfg.Health.Interval.Std()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &HealthMonitor{
		dispatcher: d,
		interval:   interval,
		onReport:   onReport,
	}
}

// Start runs a first round immediately and then one per interval until
// ctx is cancelled or Stop is called.
func (m *HealthMonitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			m.check(ctx)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the monitor and waits for the running round to finish.
func (m *HealthMonitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// Latest returns the most recent report; the zero Report before the first
// round completes.
func (m *HealthMonitor) Latest() health.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *HealthMonitor) check(ctx context.Context) {
	report := m.dispatcher.HealthReport(ctx)

	m.mu.Lock()
	m.latest = report
	m.mu.Unlock()

	if m.onReport != nil && ctx.Err() == nil {
		m.onReport(report)
	}
}
