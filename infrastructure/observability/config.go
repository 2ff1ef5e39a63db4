// Package observability wires OpenTelemetry span export and in-process
// counters for agent runs.
package observability

import (
	"io"
	"time"
)

// Exporter names a span destination.
type Exporter string

const (
	// ExporterNone keeps spans in a no-op tracer.
	ExporterNone Exporter = ""
	// ExporterOTLP ships spans to an OTLP gRPC collector.
	ExporterOTLP Exporter = "otlp"
	// ExporterStdout pretty-prints spans to a writer.
	ExporterStdout Exporter = "stdout"
)

// Config describes what a Provider exports.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	Exporter Exporter
	// Endpoint and Insecure apply to ExporterOTLP.
	Endpoint string
	Insecure bool
	// Writer applies to ExporterStdout and defaults to os.Stdout.
	Writer io.Writer
	// SampleRate is the fraction of runs traced, 1 traces all.
	SampleRate float64
	// BatchTimeout is how long spans wait before export.
	BatchTimeout time.Duration

	// Metrics turns on counter collection.
	Metrics bool
}

// DefaultConfig exports nothing.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "agent",
		ServiceVersion: "dev",
		Environment:    "development",
		SampleRate:     1,
		BatchTimeout:   5 * time.Second,
	}
}

// Option adjusts a Config.
type Option func(*Config)

func WithServiceName(name string) Option {
	return func(c *Config) { c.ServiceName = name }
}

func WithServiceVersion(version string) Option {
	return func(c *Config) { c.ServiceVersion = version }
}

func WithEnvironment(env string) Option {
	return func(c *Config) { c.Environment = env }
}

// WithOTLP exports spans to a collector at endpoint.
func WithOTLP(endpoint string, insecure bool) Option {
	return func(c *Config) {
		c.Exporter = ExporterOTLP
		c.Endpoint = endpoint
		c.Insecure = insecure
	}
}

// WithStdoutTracing writes spans to w as they are exported.
func WithStdoutTracing(w io.Writer) Option {
	return func(c *Config) {
		c.Exporter = ExporterStdout
		c.Writer = w
	}
}

func WithSampleRate(rate float64) Option {
	return func(c *Config) { c.SampleRate = rate }
}

// WithMetrics collects counters readable through Provider.Snapshot.
func WithMetrics() Option {
	return func(c *Config) { c.Metrics = true }
}
