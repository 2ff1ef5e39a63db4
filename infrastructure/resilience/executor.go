// Package resilience wraps external calls with fortify timeouts, bulkheads,
// circuit breakers and retries.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// Func is an external call guarded by the executor.
type Func func(ctx context.Context) (any, error)

// ErrPanicked is returned when a guarded call panics.
var ErrPanicked = errors.New("guarded call panicked")

// Executor guards capability invocations and provider calls.
// Capability calls are never retried; provider calls are retried when
// RetryMaxAttempts is greater than one.
type Executor struct {
	config   ExecutorConfig
	bulkhead bulkhead.Bulkhead[any]
	retry    retry.Retry[any]

	mu       sync.Mutex
	breakers map[string]circuitbreaker.CircuitBreaker[any]
}

// ExecutorConfig configures the executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent guarded calls (0 = unlimited).
	MaxConcurrent int

	// CircuitBreakerThreshold is consecutive failures before a target's
	// circuit opens (0 = disabled).
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long a circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts is the maximum provider call attempts (1 = no retry).
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// Timeout bounds each guarded call (0 = caller's context only).
	Timeout time.Duration
}

// DefaultExecutorConfig returns a configuration with sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent:          0,
		CircuitBreakerTimeout:  30 * time.Second,
		RetryMaxAttempts:       1,
		RetryInitialDelay:      200 * time.Millisecond,
		RetryBackoffMultiplier: 2.0,
		Timeout:                60 * time.Second,
	}
}

// NewExecutor creates a new executor.
func NewExecutor(config ExecutorConfig) *Executor {
	if config.RetryMaxAttempts < 1 {
		config.RetryMaxAttempts = 1
	}
	if config.CircuitBreakerThreshold < 0 {
		config.CircuitBreakerThreshold = 0
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}
	if config.RetryBackoffMultiplier <= 0 {
		config.RetryBackoffMultiplier = 2.0
	}

	e := &Executor{
		config:   config,
		breakers: make(map[string]circuitbreaker.CircuitBreaker[any]),
	}
	if config.MaxConcurrent > 0 {
		e.bulkhead = bulkhead.New[any](bulkhead.Config{
			MaxConcurrent: config.MaxConcurrent,
		})
	}
	if config.RetryMaxAttempts > 1 {
		e.retry = retry.New[any](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		})
	}
	return e
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorConfig())
}

// Invoke runs a capability call for target without retry.
// Composition order: Bulkhead -> Timeout -> Circuit Breaker.
func (e *Executor) Invoke(ctx context.Context, target string, fn Func) (any, error) {
	return e.guard(ctx, target, fn)
}

// Call runs a provider call, retrying transient failures when configured.
// Composition order: Bulkhead -> Timeout -> Circuit Breaker -> Retry.
func (e *Executor) Call(ctx context.Context, target string, fn Func) (any, error) {
	if e.retry == nil {
		return e.guard(ctx, target, fn)
	}
	return e.guard(ctx, target, func(ctx context.Context) (any, error) {
		return e.retry.Do(ctx, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
	})
}

func (e *Executor) guard(ctx context.Context, target string, fn Func) (any, error) {
	fn = recovered(target, fn)
	call := func(ctx context.Context) (any, error) {
		if e.config.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
			defer cancel()
		}
		if cb := e.breaker(target); cb != nil {
			return cb.Execute(ctx, func(ctx context.Context) (any, error) {
				return fn(ctx)
			})
		}
		return fn(ctx)
	}

	var (
		out any
		err error
	)
	if e.bulkhead != nil {
		out, err = e.bulkhead.Execute(ctx, call)
	} else {
		out, err = call(ctx)
	}
	return out, classify(ctx, target, err)
}

// recovered turns a panic in fn into an ErrPanicked error.
func recovered(target string, fn Func) Func {
	return func(ctx context.Context) (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				out, err = nil, fmt.Errorf("%w: %s: %v", ErrPanicked, target, r)
			}
		}()
		return fn(ctx)
	}
}

// breaker returns the circuit breaker for target, creating it on first use.
func (e *Executor) breaker(target string) circuitbreaker.CircuitBreaker[any] {
	if e.config.CircuitBreakerThreshold == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[target]; ok {
		return cb
	}
	threshold := uint32(e.config.CircuitBreakerThreshold) // #nosec G115 -- non-negative, checked in NewExecutor
	cb := circuitbreaker.New[any](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    e.config.CircuitBreakerTimeout,
		Timeout:     e.config.CircuitBreakerTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
	e.breakers[target] = cb
	return cb
}

// CircuitState returns the state of target's circuit, "closed" if none exists yet.
func (e *Executor) CircuitState(target string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[target]; ok {
		return cb.State().String()
	}
	return "closed"
}

// classify maps deadline expiry of a guarded call onto agent.ErrCallTimeout.
// Cancellation of the caller's own context is returned unchanged.
func classify(parent context.Context, target string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%s: %w", target, errors.Join(agent.ErrCallTimeout, err))
	}
	return err
}
