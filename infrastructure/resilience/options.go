package resilience

import "time"

// Option adjusts an ExecutorConfig.
type Option func(*ExecutorConfig)

// WithMaxConcurrent caps concurrent guarded calls.
func WithMaxConcurrent(n int) Option {
	return func(c *ExecutorConfig) { c.MaxConcurrent = n }
}

// WithCircuitBreaker opens a target's circuit for open after threshold
// consecutive failures.
func WithCircuitBreaker(threshold int, open time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.CircuitBreakerThreshold = threshold
		c.CircuitBreakerTimeout = open
	}
}

// WithRetry makes provider calls up to attempts times, starting at delay
// and backing off exponentially.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.RetryMaxAttempts = attempts
		c.RetryInitialDelay = delay
	}
}

// WithTimeout bounds each guarded call.
func WithTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) { c.Timeout = d }
}

// New creates an executor from the defaults adjusted by opts.
func New(opts ...Option) *Executor {
	cfg := DefaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewExecutor(cfg)
}
