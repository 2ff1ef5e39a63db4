package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/telemetry"
)

// ErrUnknownExporter indicates an unsupported trace exporter type.
var ErrUnknownExporter = errors.New("unknown trace exporter type")

// Provider manages the observability infrastructure.
type Provider struct {
	config         Config
	tracerProvider trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	reader         *sdkmetric.ManualReader
	metrics        telemetry.Metrics
	shutdownFuncs  []func(context.Context) error
}

// New creates a new observability provider.
func New(opts ...Option) (*Provider, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Provider{
		config:         cfg,
		tracerProvider: noop.NewTracerProvider(),
		metrics:        telemetry.NoopMetricsProvider{},
	}

	if cfg.Exporter != ExporterNone {
		if err := p.setupTracing(); err != nil {
			return nil, err
		}
	}
	if cfg.Metrics {
		if err := p.setupMetrics(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Provider) resource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(p.config.ServiceName),
		semconv.ServiceVersion(p.config.ServiceVersion),
		semconv.DeploymentEnvironment(p.config.Environment),
	)
}

// setupTracing initializes the tracing infrastructure.
func (p *Provider) setupTracing() error {
	ctx := context.Background()

	cfg := p.config
	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return err
		}
		exporter = exp

	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return err
		}
		exporter = exp

	default:
		return fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
	}

	var sampler sdktrace.Sampler
	switch rate := cfg.SampleRate; {
	case rate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case rate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(rate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(cfg.BatchTimeout),
		),
		sdktrace.WithResource(p.resource()),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p.tracerProvider = tp
	p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)
	return nil
}

// setupMetrics collects metrics in process; Snapshot reads them.
func (p *Provider) setupMetrics() error {
	p.reader = sdkmetric.NewManualReader()
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(p.reader),
		sdkmetric.WithResource(p.resource()),
	)

	config := telemetry.DefaultMetricsConfig()
	config.MeterProvider = p.meterProvider
	config.MeterVersion = p.config.ServiceVersion
	mp := telemetry.NewMetricsProvider(config)
	if err := mp.Error(); err != nil {
		return err
	}
	p.metrics = mp
	p.shutdownFuncs = append(p.shutdownFuncs, p.meterProvider.Shutdown)
	return nil
}

// TracerProvider returns the tracer provider (a no-op one when tracing is disabled).
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// Metrics returns the metrics recorder (a no-op one when metrics are disabled).
func (p *Provider) Metrics() telemetry.Metrics {
	return p.metrics
}

// CounterTotal is the summed value of one counter.
type CounterTotal struct {
	Name  string
	Value int64
}

// Snapshot returns the totals of every integer counter collected so far,
// sorted by name. It returns nil when metrics are disabled.
func (p *Provider) Snapshot(ctx context.Context) ([]CounterTotal, error) {
	if p.reader == nil {
		return nil, nil
	}
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}

	var totals []CounterTotal
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			totals = append(totals, CounterTotal{Name: m.Name, Value: total})
		}
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Name < totals[j].Name })
	return totals, nil
}

// Shutdown flushes exporters and releases resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewNoopProvider creates a provider with no-op tracing and metrics.
func NewNoopProvider() *Provider {
	return &Provider{
		config:         DefaultConfig(),
		tracerProvider: noop.NewTracerProvider(),
		metrics:        telemetry.NoopMetricsProvider{},
	}
}
