// Package telemetry provides OpenTelemetry metrics for the orchestration loop.
package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the default meter and tracer name.
const InstrumentationName = "github.com/dokkiitech/LinkDeck-sub000"

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordIteration(ctx context.Context, phase string)
	RecordProviderCall(ctx context.Context, provider, purpose string, success bool, duration time.Duration)
	RecordAction(ctx context.Context, kind, target string, success bool, duration time.Duration)
	RecordVeto(ctx context.Context, hookName, target string)
	RecordHookDuration(ctx context.Context, key string, duration time.Duration)
	RecordError(ctx context.Context, phase string, critical bool)
	RecordRun(ctx context.Context, stopReason string, iterations int, duration time.Duration)
	IncrementActiveRuns(ctx context.Context)
	DecrementActiveRuns(ctx context.Context)
}

// MetricsProvider records metrics through an OpenTelemetry meter.
type MetricsProvider struct {
	meter metric.Meter

	iterations    metric.Int64Counter
	providerCalls metric.Int64Counter
	actions       metric.Int64Counter
	vetoes        metric.Int64Counter
	errors        metric.Int64Counter
	runs          metric.Int64Counter

	providerDuration metric.Float64Histogram
	actionDuration   metric.Float64Histogram
	hookDuration     metric.Float64Histogram
	runDuration      metric.Float64Histogram

	activeRuns metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterProvider supplies the meter (default: the global provider).
	MeterProvider metric.MeterProvider
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    InstrumentationName,
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = InstrumentationName
	}
	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	mp := &MetricsProvider{
		meter: provider.Meter(config.MeterName, metric.WithInstrumentationVersion(config.MeterVersion)),
	}
	mp.initErr = mp.initInstruments()
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := mp.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		h, err := mp.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("ms"))
		errs = append(errs, err)
		return h
	}

	mp.iterations = counter("agent.iterations", "Number of loop iterations", "{iteration}")
	mp.providerCalls = counter("agent.provider.calls", "Number of reasoning provider calls", "{call}")
	mp.actions = counter("agent.actions", "Number of dispatched actions", "{action}")
	mp.vetoes = counter("agent.hook.vetoes", "Number of actions vetoed by hooks", "{veto}")
	mp.errors = counter("agent.errors", "Number of iteration errors", "{error}")
	mp.runs = counter("agent.runs", "Number of completed runs", "{run}")

	mp.providerDuration = histogram("agent.provider.duration", "Duration of reasoning provider calls")
	mp.actionDuration = histogram("agent.action.duration", "Duration of action dispatch")
	mp.hookDuration = histogram("agent.hook.action_duration", "Action duration measured by the performance hook")
	mp.runDuration = histogram("agent.run.duration", "Duration of agent runs")

	var err error
	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		"agent.runs.active",
		metric.WithDescription("Number of active agent runs"),
		metric.WithUnit("{run}"),
	)
	errs = append(errs, err)

	return errors.Join(errs...)
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordIteration records the start of an iteration.
func (mp *MetricsProvider) RecordIteration(ctx context.Context, phase string) {
	mp.iterations.Add(ctx, 1, metric.WithAttributes(attribute.String("agent.phase", phase)))
}

// RecordProviderCall records a think or learn call.
func (mp *MetricsProvider) RecordProviderCall(ctx context.Context, provider, purpose string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.purpose", purpose),
		attribute.Bool("success", success),
	)
	mp.providerCalls.Add(ctx, 1, attrs)
	mp.providerDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordAction records a dispatched action.
func (mp *MetricsProvider) RecordAction(ctx context.Context, kind, target string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("action.kind", kind),
		attribute.String("action.target", target),
		attribute.Bool("success", success),
	)
	mp.actions.Add(ctx, 1, attrs)
	mp.actionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordVeto records an action blocked by a hook.
func (mp *MetricsProvider) RecordVeto(ctx context.Context, hookName, target string) {
	mp.vetoes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("hook.name", hookName),
		attribute.String("action.target", target),
	))
}

// RecordHookDuration records an action duration measured by a hook.
func (mp *MetricsProvider) RecordHookDuration(ctx context.Context, key string, duration time.Duration) {
	mp.hookDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("action.key", key),
	))
}

// RecordError records an iteration error.
func (mp *MetricsProvider) RecordError(ctx context.Context, phase string, critical bool) {
	mp.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent.phase", phase),
		attribute.Bool("critical", critical),
	))
}

// RecordRun records a finished run.
func (mp *MetricsProvider) RecordRun(ctx context.Context, stopReason string, iterations int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("run.stop_reason", stopReason),
		attribute.Int("run.iterations", iterations),
	)
	mp.runs.Add(ctx, 1, attrs)
	mp.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// IncrementActiveRuns increments the active runs counter.
func (mp *MetricsProvider) IncrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, 1)
}

// DecrementActiveRuns decrements the active runs counter.
func (mp *MetricsProvider) DecrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordIteration is a no-op.
func (NoopMetricsProvider) RecordIteration(context.Context, string) {}

// RecordProviderCall is a no-op.
func (NoopMetricsProvider) RecordProviderCall(context.Context, string, string, bool, time.Duration) {}

// RecordAction is a no-op.
func (NoopMetricsProvider) RecordAction(context.Context, string, string, bool, time.Duration) {}

// RecordVeto is a no-op.
func (NoopMetricsProvider) RecordVeto(context.Context, string, string) {}

// RecordHookDuration is a no-op.
func (NoopMetricsProvider) RecordHookDuration(context.Context, string, time.Duration) {}

// RecordError is a no-op.
func (NoopMetricsProvider) RecordError(context.Context, string, bool) {}

// RecordRun is a no-op.
func (NoopMetricsProvider) RecordRun(context.Context, string, int, time.Duration) {}

// IncrementActiveRuns is a no-op.
func (NoopMetricsProvider) IncrementActiveRuns(context.Context) {}

// DecrementActiveRuns is a no-op.
func (NoopMetricsProvider) DecrementActiveRuns(context.Context) {}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = NoopMetricsProvider{}
)
