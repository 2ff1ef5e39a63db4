// Package hooks provides the builtin guard-rail and logging hooks.
package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/security/audit"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/memory"
)

// CounterStore holds fixed-window counters shared by rate limit hooks.
// The in-memory store serves one process; the redis store spans processes.
type CounterStore interface {
	// Increment bumps key and returns the new count and the end of its window.
	Increment(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error)
}

// Clock returns the current time.
type Clock func() time.Time

// SharedState is the mutable state hooks keep across runs.
// Engines given the same SharedState share rate-limit budgets, timings and audit entries.
type SharedState struct {
	Counters CounterStore
	Timings  *Timings
	Audit    *audit.Trail
}

// NewSharedState creates an isolated state.
func NewSharedState() *SharedState {
	return &SharedState{
		Counters: memory.NewCounterStore(),
		Timings:  NewTimings(),
		Audit:    audit.NewTrail(),
	}
}

var (
	defaultShared     *SharedState
	defaultSharedOnce sync.Once
)

// DefaultSharedState returns the process-wide state, creating it on first use.
func DefaultSharedState() *SharedState {
	defaultSharedOnce.Do(func() {
		defaultShared = NewSharedState()
	})
	return defaultShared
}

const (
	// MaxTimingSamples bounds the durations kept per key; older ones are dropped.
	MaxTimingSamples = 1000
	// MaxInFlightTimers bounds running timers; the oldest start is dropped.
	MaxInFlightTimers = 1000
)

// Timings tracks in-flight action timers and completed durations.
// A run has at most one timer in flight.
type Timings struct {
	mu      sync.Mutex
	starts  map[string]timer
	samples map[string][]time.Duration
}

type timer struct {
	key string
	at  time.Time
}

// NewTimings creates an empty timing store.
func NewTimings() *Timings {
	return &Timings{
		starts:  make(map[string]timer),
		samples: make(map[string][]time.Duration),
	}
}

// Start records the start of key for runID, replacing any timer the run
// left unstopped (e.g. after a veto).
func (t *Timings) Start(runID, key string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.starts[runID]; !ok && len(t.starts) >= MaxInFlightTimers {
		oldest := ""
		for id, s := range t.starts {
			if oldest == "" || s.at.Before(t.starts[oldest].at) {
				oldest = id
			}
		}
		delete(t.starts, oldest)
	}
	t.starts[runID] = timer{key: key, at: at}
}

// Stop ends the run's timer for key and records the elapsed time.
// It returns false if no such timer is running.
func (t *Timings) Stop(runID, key string, at time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.starts[runID]
	if !ok || start.key != key {
		return 0, false
	}
	delete(t.starts, runID)
	d := at.Sub(start.at)
	samples := append(t.samples[key], d)
	if len(samples) > MaxTimingSamples {
		samples = samples[len(samples)-MaxTimingSamples:]
	}
	t.samples[key] = samples
	return d, true
}

// InFlight returns the number of running timers.
func (t *Timings) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.starts)
}

// Average returns the mean duration and sample count for key.
func (t *Timings) Average(key string) (time.Duration, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	samples := t.samples[key]
	if len(samples) == 0 {
		return 0, 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total / time.Duration(len(samples)), len(samples)
}

// Snapshot returns a copy of all recorded durations by key.
func (t *Timings) Snapshot() map[string][]time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string][]time.Duration, len(t.samples))
	for k, v := range t.samples {
		out[k] = append([]time.Duration(nil), v...)
	}
	return out
}
