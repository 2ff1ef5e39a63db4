package hooks

import (
	"context"
	"fmt"
	"os"

	"github.com/dokkiitech/LinkDeck-sub000/domain/config"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/security/audit"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/memory"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/telemetry"
)

// Rate limit scopes.
const (
	ScopeShared   = "shared"
	ScopeIsolated = "isolated"
)

// BuildOptions carries the collaborators hooks built from configuration need.
type BuildOptions struct {
	// Shared is the state hooks use (default: DefaultSharedState).
	Shared *SharedState
	// Counters replaces the shared rate limit counters, e.g. with a redis store.
	Counters CounterStore
	// Metrics receives performance samples.
	Metrics telemetry.Metrics
	// AuditSink receives audit entries durably, e.g. a sqlite AuditStore.
	AuditSink audit.Sink
	// Now is the clock for rate limiting and timing.
	Now Clock
}

// FromConfig builds the hooks enabled by cfg in evaluation order:
// guard rails, policy, human approval, then logging hooks.
func FromConfig(ctx context.Context, cfg config.HooksConfig, opts BuildOptions) ([]hook.Hook, error) {
	shared := opts.Shared
	if shared == nil {
		shared = DefaultSharedState()
	}

	var out []hook.Hook

	if cfg.GuardRails {
		out = append(out, ContentSafety(ContentSafetyConfig{
			Targets:  cfg.ContentSafety.Targets,
			Fields:   cfg.ContentSafety.Fields,
			Denylist: cfg.ContentSafety.Denylist,
		}))

		counters := shared.Counters
		switch {
		case opts.Counters != nil:
			counters = opts.Counters
		case cfg.RateLimit.Scope == ScopeIsolated:
			counters = memory.NewCounterStore()
		}
		out = append(out, RateLimit(RateLimitConfig{
			Limit:     cfg.RateLimit.Limit,
			Window:    cfg.RateLimit.Window.Duration(),
			Targets:   cfg.RateLimit.Targets,
			Namespace: cfg.RateLimit.Namespace,
			Counters:  counters,
			Now:       opts.Now,
		}))
		if cfg.RateLimit.Rate > 0 {
			out = append(out, TokenBucket(TokenBucketConfig{
				Rate:      cfg.RateLimit.Rate,
				Burst:     cfg.RateLimit.Burst,
				Namespace: cfg.RateLimit.Namespace,
			}))
		}

		out = append(out, DataPrivacy())
	}

	if cfg.Policy.Enabled() {
		src := cfg.Policy.Inline
		if cfg.Policy.File != "" {
			data, err := os.ReadFile(cfg.Policy.File)
			if err != nil {
				return nil, fmt.Errorf("failed to read policy file: %w", err)
			}
			src = string(data)
		}
		engine, err := NewPolicyEngine(ctx, src)
		if err != nil {
			return nil, err
		}
		out = append(out, Policy(engine))
	}

	if cfg.HumanInLoop {
		out = append(out, HumanApproval(cfg.HumanApproval.CriticalActions))
	}

	if cfg.Logging.ActionLog {
		out = append(out, ActionLogger())
	}
	if cfg.Logging.Performance {
		out = append(out, Performance(PerformanceConfig{
			Timings: shared.Timings,
			Metrics: opts.Metrics,
			Now:     opts.Now,
		}))
	}
	if cfg.Logging.Audit.Enabled {
		trail := shared.Audit
		if cfg.Logging.Audit.MaxEntries > 0 || opts.AuditSink != nil {
			var trailOpts []audit.Option
			if cfg.Logging.Audit.MaxEntries > 0 {
				trailOpts = append(trailOpts, audit.WithMaxEntries(cfg.Logging.Audit.MaxEntries))
			}
			if opts.AuditSink != nil {
				trailOpts = append(trailOpts, audit.WithSink(opts.AuditSink))
			}
			trail = audit.NewTrail(trailOpts...)
		}
		out = append(out, AuditTrail(trail))
	}

	return out, nil
}
