package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokkiitech/LinkDeck-sub000/application"
	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	infraconfig "github.com/dokkiitech/LinkDeck-sub000/infrastructure/config"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/observability"
)

// Trace exporters accepted by --trace.
const (
	traceStdout = "stdout"
	traceOTLP   = "otlp"
)

type runOptions struct {
	configPath    string
	goal          string
	maxIterations int
	timeout       time.Duration
	strictEnv     bool
	jsonOutput    bool
	showLog       bool
	vars          map[string]string
	trace         string
	otlpEndpoint  string
	metrics       bool
}

func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [goal]",
		Short: "Run an agent toward a goal",
		Long: `Run an agent using the provided configuration file and goal.

The loop stops when the provider reports the goal achieved, the iteration
bound is reached, a critical error occurs or the run is cancelled.

Examples:
  # Run with a goal argument
  agent run -c agent.yaml "Summarize the open tickets"

  # Override variables and the iteration bound
  agent run -c agent.yaml --var customer=acme --max-iterations 3 -g "Draft a reply"

  # Export spans to stdout and print counters afterwards
  agent run -c agent.yaml --trace stdout --metrics "Say hello"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && opts.goal == "" {
				opts.goal = args[0]
			}
			return a.runAgent(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	f.StringVarP(&opts.goal, "goal", "g", "", "Goal of the run (overrides agent.default_goal)")
	f.IntVar(&opts.maxIterations, "max-iterations", 0, "Maximum iterations (overrides config)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Cancel the run after this duration")
	f.BoolVar(&opts.strictEnv, "strict-env", false, "Fail on unset environment variables")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print the run result as JSON")
	f.BoolVar(&opts.showLog, "log", false, "Print the run log")
	f.StringToStringVar(&opts.vars, "var", nil, "Initial context values (key=value)")
	f.StringVar(&opts.trace, "trace", "", "Export spans (stdout, otlp)")
	f.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "localhost:4317", "OTLP gRPC endpoint for --trace otlp")
	f.BoolVar(&opts.metrics, "metrics", false, "Collect metrics and print counter totals")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (a *App) observability(opts *runOptions) (*observability.Provider, error) {
	obsOpts := []observability.Option{
		observability.WithServiceName("agent"),
		observability.WithServiceVersion(Version),
	}
	switch opts.trace {
	case "":
	case traceStdout:
		obsOpts = append(obsOpts, observability.WithStdoutTracing(a.stderr))
	case traceOTLP:
		obsOpts = append(obsOpts, observability.WithOTLP(opts.otlpEndpoint, true))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q (want %s or %s)", opts.trace, traceStdout, traceOTLP)
	}
	if opts.metrics {
		obsOpts = append(obsOpts, observability.WithMetrics())
	}
	return observability.New(obsOpts...)
}

func (a *App) runAgent(ctx context.Context, opts *runOptions) (err error) {
	cfg, err := infraconfig.NewLoader(infraconfig.WithStrictEnv(opts.strictEnv)).LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.maxIterations > 0 {
		cfg.Agent.MaxIterations = opts.maxIterations
	}
	if cfg.Variables == nil {
		cfg.Variables = make(map[string]any, len(opts.vars))
	}
	for k, v := range opts.vars {
		cfg.Variables[k] = v
	}

	obs, err := a.observability(opts)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = errors.Join(err, obs.Shutdown(shutdownCtx))
	}()

	built, err := infraconfig.NewBuilder(cfg,
		infraconfig.WithBaseDir(filepath.Dir(opts.configPath)),
		infraconfig.WithBuildMetrics(obs.Metrics()),
	).Build(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, built.Close()) }()

	goal := opts.goal
	if goal == "" {
		goal = built.Goal
	}
	if strings.TrimSpace(goal) == "" {
		return fmt.Errorf("no goal specified (use an argument, --goal or agent.default_goal)")
	}

	engine, err := application.NewEngineWithOptions(
		application.WithProvider(built.Provider),
		application.WithRegistry(built.Registry),
		application.WithActionPlanner(built.ActionPlanner),
		application.WithHooks(built.Hooks...),
		application.WithFailOpen(built.FailOpen),
		application.WithExecutor(built.Executor),
		application.WithMetrics(obs.Metrics()),
		application.WithTracerProvider(obs.TracerProvider()),
		application.WithMaxIterations(built.MaxIterations),
		application.WithMemoryCapacity(built.MemoryCapacity),
		application.WithLogging(built.EnableLogging || opts.showLog),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	started := time.Now()
	result, runErr := engine.Run(ctx, goal, built.Variables)
	if result != nil {
		if err := a.printResult(result, goal, time.Since(started), opts); err != nil {
			return err
		}
	}
	if opts.metrics {
		if err := a.printMetrics(ctx, obs); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("agent run failed: %w", runErr)
	}
	return nil
}

func (a *App) printResult(result *agent.RunResult, goal string, elapsed time.Duration, opts *runOptions) error {
	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	_, _ = fmt.Fprintf(a.stdout, "Run finished\n")
	_, _ = fmt.Fprintf(a.stdout, "  Goal: %s\n", goal)
	_, _ = fmt.Fprintf(a.stdout, "  Stop reason: %s\n", result.StopReason)
	_, _ = fmt.Fprintf(a.stdout, "  Iterations: %d\n", result.Iterations)
	_, _ = fmt.Fprintf(a.stdout, "  Memories: %d\n", len(result.Memory))
	_, _ = fmt.Fprintf(a.stdout, "  Duration: %s\n", elapsed.Round(time.Millisecond))
	if result.Error != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Error: %s\n", result.Error)
	}
	if data, err := json.MarshalIndent(result.Result, "  ", "  "); err == nil {
		_, _ = fmt.Fprintf(a.stdout, "  Result: %s\n", data)
	}

	if opts.showLog && len(result.Log) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "\nLog:\n")
		for _, line := range result.Log {
			_, _ = fmt.Fprintf(a.stdout, "  %s\n", line)
		}
	}
	return nil
}

func (a *App) printMetrics(ctx context.Context, obs *observability.Provider) error {
	totals, err := obs.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect metrics: %w", err)
	}
	_, _ = fmt.Fprintf(a.stdout, "\nMetrics:\n")
	for _, t := range totals {
		_, _ = fmt.Fprintf(a.stdout, "  %s: %d\n", t.Name, t.Value)
	}
	return nil
}
