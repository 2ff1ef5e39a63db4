package application

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/planner"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/resilience"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/telemetry"
)

// Option configures the engine.
type Option func(*EngineConfig)

// WithProvider sets the reasoning provider.
func WithProvider(p planner.Provider) Option {
	return func(c *EngineConfig) {
		c.Provider = p
	}
}

// WithRegistry sets the capability registry.
func WithRegistry(r capability.Registry) Option {
	return func(c *EngineConfig) {
		c.Registry = r
	}
}

// WithActionPlanner sets the planning step that turns a thought into an action.
func WithActionPlanner(p planner.ActionPlanner) Option {
	return func(c *EngineConfig) {
		c.ActionPlanner = p
	}
}

// WithHooks appends hooks in evaluation order.
func WithHooks(hooks ...hook.Hook) Option {
	return func(c *EngineConfig) {
		c.Hooks = append(c.Hooks, hooks...)
	}
}

// WithFailOpen lets pre-action hook errors pass instead of vetoing.
func WithFailOpen(failOpen bool) Option {
	return func(c *EngineConfig) {
		c.FailOpen = failOpen
	}
}

// WithExecutor sets the resilient executor wrapping provider and capability calls.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *EngineConfig) {
		c.Executor = e
	}
}

// WithCallTimeout bounds each provider call and capability invocation.
// It replaces the executor with one using the given timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *EngineConfig) {
		c.Executor = resilience.New(resilience.WithTimeout(d))
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *EngineConfig) {
		c.Metrics = m
	}
}

// WithTracerProvider sets the tracer provider used for run spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *EngineConfig) {
		c.TracerProvider = tp
	}
}

// WithMaxIterations sets the maximum number of iterations.
func WithMaxIterations(n int) Option {
	return func(c *EngineConfig) {
		c.MaxIterations = n
	}
}

// WithMemoryCapacity sets the number of memory records retained.
func WithMemoryCapacity(n int) Option {
	return func(c *EngineConfig) {
		c.MemoryCapacity = n
	}
}

// WithLogging populates RunResult.Log.
func WithLogging(enabled bool) Option {
	return func(c *EngineConfig) {
		c.EnableLogging = enabled
	}
}

// WithClock sets the clock used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(c *EngineConfig) {
		c.Now = now
	}
}

// NewEngineWithOptions creates an engine using functional options.
func NewEngineWithOptions(opts ...Option) (*Engine, error) {
	config := EngineConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return NewEngine(config)
}
