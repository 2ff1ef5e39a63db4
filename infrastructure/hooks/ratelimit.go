package hooks

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/logging"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/memory"
)

// RateLimitConfig configures the fixed-window rate limit hook.
type RateLimitConfig struct {
	// Limit is the number of actions allowed per window and key (default: 10).
	Limit int
	// Window is the counting window (default: 1h).
	Window time.Duration
	// Targets are the tool targets counted (default: send_email).
	Targets []string
	// Namespace prefixes counter keys so callers can partition a shared store.
	Namespace string
	// Counters holds the windows (default: a new isolated store).
	Counters CounterStore
	// Now is the clock (default: time.Now).
	Now Clock
}

// DefaultRateLimitConfig returns the default rate limit.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   10,
		Window:  time.Hour,
		Targets: []string{"send_email"},
	}
}

// RateLimit blocks tool actions once a target exceeds Limit calls in a window.
// The window starts at the first call and resets lazily after it ends.
func RateLimit(cfg RateLimitConfig) hook.Hook {
	defaults := DefaultRateLimitConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = defaults.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = defaults.Targets
	}
	if cfg.Counters == nil {
		cfg.Counters = memory.NewCounterStore()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return hook.New(NameRateLimit, hook.TypeGuardRail, func(ctx context.Context, hc *hook.Context) (hook.Result, error) {
		a := hc.Action
		if a == nil || a.Kind != agent.ActionToolUse || !slices.Contains(cfg.Targets, a.Target) {
			return hook.Allow(), nil
		}

		key := a.Target
		if cfg.Namespace != "" {
			key = cfg.Namespace + ":" + key
		}
		count, resetAt, err := cfg.Counters.Increment(ctx, key, cfg.Now(), cfg.Window)
		if err != nil {
			return hook.Result{}, fmt.Errorf("rate limit counter %s: %w", key, err)
		}
		if count > cfg.Limit {
			logging.Warn().
				Add(logging.RunID(hc.RunID)).
				Add(logging.Target(a.Target)).
				Add(logging.Str("key", key)).
				Add(logging.Int("count", count)).
				Add(logging.Str("reset_at", resetAt.Format(time.RFC3339))).
				Msg("rate limit exceeded")
			return hook.Block(fmt.Sprintf("Rate limit exceeded: Maximum %d %s calls per %s", cfg.Limit, a.Target, cfg.Window)), nil
		}
		return hook.Allow(), nil
	})
}

// TokenBucketConfig configures the token bucket hook.
type TokenBucketConfig struct {
	// Limiter is the rate limiter to use (default: a new fortify token bucket).
	Limiter ratelimit.RateLimiter
	// Rate is the number of tokens added per interval.
	Rate int
	// Burst is the bucket capacity (default: Rate).
	Burst int
	// Namespace prefixes limiter keys.
	Namespace string
	// FailOpen allows calls when the limiter fails.
	FailOpen bool
}

// TokenBucket smooths the rate of every tool call using fortify's limiter,
// keyed by namespace and target.
func TokenBucket(cfg TokenBucketConfig) hook.Hook {
	limiter := cfg.Limiter
	if limiter == nil {
		rate := cfg.Rate
		if rate <= 0 {
			rate = 100
		}
		burst := cfg.Burst
		if burst <= 0 {
			burst = rate
		}
		limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    burst,
			FailOpen: cfg.FailOpen,
		})
	}

	return hook.New(NameTokenBucket, hook.TypeGuardRail, func(ctx context.Context, hc *hook.Context) (hook.Result, error) {
		a := hc.Action
		if a == nil || a.Kind != agent.ActionToolUse {
			return hook.Allow(), nil
		}
		key := a.Target
		if cfg.Namespace != "" {
			key = cfg.Namespace + ":" + key
		}
		if !limiter.Allow(ctx, key) {
			logging.Warn().
				Add(logging.RunID(hc.RunID)).
				Add(logging.Target(a.Target)).
				Add(logging.Str("key", key)).
				Msg("token bucket exhausted")
			return hook.Block("Rate limit exceeded for " + a.Target), nil
		}
		return hook.Allow(), nil
	})
}
