package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// CheckFunc performs a health check for a component. It returns nil if
// the component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Healthy is true when the check returned nil within the timeout
	Healthy bool `json:"healthy"`

	// Message is the check error, empty when healthy
	Message string `json:"message,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ms"`
}

// Report statuses.
const (
	StatusOK        = "ok"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Report aggregates one round of checks.
type Report struct {
	// Status is "ok" when every check passed, "degraded" when some did and
	// "unhealthy" when none did
	Status string `json:"status"`

	// Checks holds the result per component
	Checks map[string]CheckResult `json:"checks"`

	// Timestamp is when the round finished
	Timestamp time.Time `json:"timestamp"`
}

// Healthy returns the per-component verdicts.
func (r Report) Healthy() map[string]bool {
	out := make(map[string]bool, len(r.Checks))
	for name, result := range r.Checks {
		out[name] = result.Healthy
	}
	return out
}

// Names returns the checked component names in sorted order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrCheckTimeout is reported when a check does not finish in time.
var ErrCheckTimeout = errors.New("health check timeout")

// Checker runs named checks concurrently, each under its own timeout.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	checkTimeout time.Duration
}

// New creates a checker. A zero timeout defaults to 10 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 10 * time.Second
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a check, replacing one with the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// UnregisterCheck removes a check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.checks, name)
}

// CheckCount returns the number of registered checks.
func (c *Checker) CheckCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.checks)
}

// Run performs every registered check concurrently and never fails; a
// check that errors, panics or times out is reported unhealthy.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}

	wg.Wait()

	healthy := 0
	for _, result := range results {
		if result.Healthy {
			healthy++
		}
	}

	status := StatusOK
	switch {
	case len(results) > 0 && healthy == 0:
		status = StatusUnhealthy
	case healthy < len(results):
		status = StatusDegraded
	}

	return Report{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single check with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- errors.New("health check panicked")
			}
		}()
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return CheckResult{Message: err.Error(), Duration: time.Since(start)}
		}
		return CheckResult{Healthy: true, Duration: time.Since(start)}

	case <-checkCtx.Done():
		return CheckResult{Message: ErrCheckTimeout.Error(), Duration: time.Since(start)}
	}
}
