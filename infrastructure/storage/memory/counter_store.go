package memory

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	count   int
	resetAt time.Time
}

// CounterStore holds fixed-window counters keyed by string.
type CounterStore struct {
	counters map[string]*windowCounter
	mu       sync.Mutex
}

// NewCounterStore creates a new in-memory counter store.
func NewCounterStore() *CounterStore {
	return &CounterStore{
		counters: make(map[string]*windowCounter),
	}
}

// Increment bumps the counter for key and returns the new count and the end
// of its window. A counter whose window ended before now starts over.
func (s *CounterStore) Increment(_ context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || c.resetAt.Before(now) {
		c = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, c.resetAt, nil
}

// Count returns the current count for key, 0 if unknown.
func (s *CounterStore) Count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[key]; ok {
		return c.count
	}
	return 0
}

// Reset removes the counter for key.
func (s *CounterStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
}
