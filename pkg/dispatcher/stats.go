package dispatcher

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats counts dispatcher activity with atomic operations.
type Stats struct {
	totalCalls atomic.Int64
	attempts   atomic.Int64
	retries    atomic.Int64
	fallbacks  atomic.Int64
	errors     atomic.Int64

	// callsPerProvider is map[string]*atomic.Int64
	callsPerProvider sync.Map

	lastResetTime time.Time
	mu            sync.RWMutex
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TotalCalls       int64            `json:"total_calls"`
	Attempts         int64            `json:"attempts"`
	Retries          int64            `json:"retries"`
	Fallbacks        int64            `json:"fallbacks"`
	Errors           int64            `json:"errors"`
	CallsPerProvider map[string]int64 `json:"calls_per_provider"`
	LastResetTime    time.Time        `json:"last_reset_time"`
}

// NewStats creates an empty tracker.
func NewStats() *Stats {
	return &Stats{lastResetTime: time.Now()}
}

// IncrementTotal counts a GetChatCompletion call.
func (s *Stats) IncrementTotal() {
	s.totalCalls.Add(1)
}

// IncrementAttempts counts one vendor exchange.
func (s *Stats) IncrementAttempts() {
	s.attempts.Add(1)
}

// IncrementRetries counts a scheduled retry.
func (s *Stats) IncrementRetries() {
	s.retries.Add(1)
}

// IncrementFallback counts a call redirected to the default provider.
func (s *Stats) IncrementFallback() {
	s.fallbacks.Add(1)
}

// IncrementErrors counts a failed call.
func (s *Stats) IncrementErrors() {
	s.errors.Add(1)
}

// IncrementProvider counts a call resolved to providerName.
func (s *Stats) IncrementProvider(providerName string) {
	val, _ := s.callsPerProvider.LoadOrStore(providerName, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

// Snapshot returns a copy safe to read without locks.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perProvider := make(map[string]int64)
	s.callsPerProvider.Range(func(key, value any) bool {
		perProvider[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	return StatsSnapshot{
		TotalCalls:       s.totalCalls.Load(),
		Attempts:         s.attempts.Load(),
		Retries:          s.retries.Load(),
		Fallbacks:        s.fallbacks.Load(),
		Errors:           s.errors.Load(),
		CallsPerProvider: perProvider,
		LastResetTime:    s.lastResetTime,
	}
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.totalCalls.Store(0)
	s.attempts.Store(0)
	s.retries.Store(0)
	s.fallbacks.Store(0)
	s.errors.Store(0)

	s.callsPerProvider.Range(func(key, _ any) bool {
		s.callsPerProvider.Delete(key)
		return true
	})

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
