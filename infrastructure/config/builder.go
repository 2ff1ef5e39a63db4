package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	domainconfig "github.com/dokkiitech/LinkDeck-sub000/domain/config"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/hooks"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/planner"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/resilience"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/security/audit"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/memory"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/redis"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/sqlite"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/telemetry"
	"github.com/dokkiitech/LinkDeck-sub000/pack/builtin"
)

// ScriptFinished is returned by a configured scripted provider once its
// replies run out, ending the run.
const ScriptFinished = "No scripted replies left. GOAL_ACHIEVED"

// Builder assembles engine collaborators from configuration.
type Builder struct {
	config   *domainconfig.AgentConfig
	baseDir  string
	provider planner.Provider
	shared   *hooks.SharedState
	metrics  telemetry.Metrics
	now      hooks.Clock
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBaseDir resolves relative paths (policy file, tools root, audit
// database) against dir, usually the config file's directory.
func WithBaseDir(dir string) BuilderOption {
	return func(b *Builder) {
		b.baseDir = dir
	}
}

// WithProviderOverride replaces the configured provider.
func WithProviderOverride(p planner.Provider) BuilderOption {
	return func(b *Builder) {
		b.provider = p
	}
}

// WithSharedState injects the state shared by hooks.
func WithSharedState(s *hooks.SharedState) BuilderOption {
	return func(b *Builder) {
		b.shared = s
	}
}

// WithBuildMetrics sets the metrics sink handed to hooks.
func WithBuildMetrics(m telemetry.Metrics) BuilderOption {
	return func(b *Builder) {
		b.metrics = m
	}
}

// WithBuildClock sets the clock handed to hooks.
func WithBuildClock(now hooks.Clock) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg *domainconfig.AgentConfig, opts ...BuilderOption) *Builder {
	b := &Builder{config: cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildResult holds the assembled collaborators.
type BuildResult struct {
	Provider      planner.Provider
	ActionPlanner planner.ActionPlanner
	Registry      *memory.Registry
	Hooks         []hook.Hook
	Executor      *resilience.Executor
	// AuditStore is set when audit entries are persisted to sqlite.
	AuditStore *sqlite.AuditStore
	// Counters is set when rate limit windows live in redis.
	Counters *redis.CounterStore

	MaxIterations  int
	MemoryCapacity int
	EnableLogging  bool
	FailOpen       bool
	Goal           string
	Variables      map[string]any
}

// Close releases resources opened while building.
func (r *BuildResult) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.AuditStore != nil {
		errs = append(errs, r.AuditStore.Close())
	}
	if r.Counters != nil {
		errs = append(errs, r.Counters.Close())
	}
	return errors.Join(errs...)
}

// Build assembles every collaborator. Resources opened before a failure
// are released.
func (b *Builder) Build(ctx context.Context) (result *BuildResult, err error) {
	cfg := b.config
	result = &BuildResult{
		ActionPlanner:  planner.NewActionPlanner(cfg.Agent.Planner),
		Registry:       memory.NewRegistry(),
		Executor:       b.Executor(),
		MaxIterations:  cfg.Agent.MaxIterations,
		MemoryCapacity: cfg.Agent.MemoryCapacity,
		EnableLogging:  cfg.Agent.EnableLogging,
		FailOpen:       cfg.Hooks.FailOpen,
		Goal:           cfg.Agent.DefaultGoal,
		Variables:      copyVariables(cfg.Variables),
	}
	defer func() {
		if err != nil {
			err = errors.Join(fmt.Errorf("%w: %w", domainconfig.ErrBuildFailed, err), result.Close())
			result = nil
		}
	}()

	if result.Provider, err = b.Provider(ctx); err != nil {
		return result, err
	}

	var builtinOpts []builtin.Option
	builtinOpts = append(builtinOpts, builtin.WithProvider(result.Provider))
	if cfg.Tools.Root != "" {
		builtinOpts = append(builtinOpts, builtin.WithRoot(b.resolve(cfg.Tools.Root)))
	}
	if err = builtin.Register(result.Registry, cfg.Tools.Builtin, builtinOpts...); err != nil {
		return result, fmt.Errorf("failed to register builtins: %w", err)
	}

	var sink audit.Sink
	if path := cfg.Hooks.Logging.Audit.SQLitePath; cfg.Hooks.Logging.Audit.Enabled && path != "" {
		if result.AuditStore, err = sqlite.OpenAuditStore(b.resolve(path)); err != nil {
			return result, fmt.Errorf("failed to open audit store: %w", err)
		}
		sink = result.AuditStore
	}

	var counters hooks.CounterStore
	if rc := cfg.Hooks.RateLimit.Redis; cfg.Hooks.GuardRails && rc.Address != "" {
		redisOpts := []redis.ConfigOption{
			redis.WithAddress(rc.Address),
			redis.WithPassword(rc.Password),
			redis.WithDB(rc.DB),
		}
		if rc.KeyPrefix != "" {
			redisOpts = append(redisOpts, redis.WithKeyPrefix(rc.KeyPrefix))
		}
		if result.Counters, err = redis.NewCounterStore(redis.DefaultConfig(), redisOpts...); err != nil {
			return result, fmt.Errorf("failed to open rate limit counters: %w", err)
		}
		counters = result.Counters
	}

	hooksCfg := cfg.Hooks
	if hooksCfg.Policy.File != "" {
		hooksCfg.Policy.File = b.resolve(hooksCfg.Policy.File)
	}
	result.Hooks, err = hooks.FromConfig(ctx, hooksCfg, hooks.BuildOptions{
		Shared:    b.shared,
		Counters:  counters,
		Metrics:   b.metrics,
		AuditSink: sink,
		Now:       b.now,
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// Provider creates the configured reasoning provider.
func (b *Builder) Provider(ctx context.Context) (planner.Provider, error) {
	if b.provider != nil {
		return b.provider, nil
	}

	p := b.config.Provider
	timeout := int(b.config.Resilience.Timeout.Duration() / time.Second)
	switch p.Type {
	case "anthropic":
		return planner.NewAnthropicProvider(planner.AnthropicConfig{
			APIKey: p.APIKey, BaseURL: p.BaseURL, Model: p.Model, Timeout: timeout,
		}), nil
	case "openai":
		return planner.NewOpenAIProvider(planner.OpenAIConfig{
			APIKey: p.APIKey, BaseURL: p.BaseURL, Model: p.Model, Timeout: timeout,
		}), nil
	case "gemini":
		return planner.NewGeminiProvider(ctx, planner.GeminiConfig{
			APIKey: p.APIKey, BaseURL: p.BaseURL, Model: p.Model,
		})
	case "scripted":
		return planner.NewScriptedProvider(p.Replies...).
			OnExhausted(func(planner.CompletionRequest) (string, error) {
				return ScriptFinished, nil
			}), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", p.Type)
	}
}

// Executor creates the resilient executor from the resilience section.
func (b *Builder) Executor() *resilience.Executor {
	r := b.config.Resilience
	ec := resilience.DefaultExecutorConfig()
	if r.Timeout > 0 {
		ec.Timeout = r.Timeout.Duration()
	}
	if r.Retry.MaxAttempts > 0 {
		ec.RetryMaxAttempts = r.Retry.MaxAttempts
	}
	if r.Retry.InitialDelay > 0 {
		ec.RetryInitialDelay = r.Retry.InitialDelay.Duration()
	}
	ec.CircuitBreakerThreshold = r.CircuitBreaker.Threshold
	if r.CircuitBreaker.Timeout > 0 {
		ec.CircuitBreakerTimeout = r.CircuitBreaker.Timeout.Duration()
	}
	ec.MaxConcurrent = r.MaxConcurrent
	return resilience.NewExecutor(ec)
}

func (b *Builder) resolve(path string) string {
	if b.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.baseDir, path)
}

func copyVariables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}
