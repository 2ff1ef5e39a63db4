package hooks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/logging"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/security/audit"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/telemetry"
)

// ActionLogger logs every action it sees. It never vetoes.
func ActionLogger() hook.Hook {
	return hook.New(NameActionLogger, hook.TypeLogging, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
		if hc.Action == nil {
			return hook.Allow(), nil
		}

		ev := logging.Info().
			Add(logging.RunID(hc.RunID)).
			Add(logging.Str("stage", string(hc.Stage))).
			Add(logging.Phase(hc.Phase)).
			Add(logging.Iteration(hc.Iteration())).
			Add(logging.Action(*hc.Action)).
			Add(logging.Target(hc.Action.Target))
		if params, err := json.Marshal(audit.Redact(hc.Action.Parameters)); err == nil {
			ev = ev.Add(logging.Str("parameters", string(params)))
		}
		if hc.Err != nil {
			ev = ev.Add(logging.ErrorField(hc.Err))
		}
		ev.Msg("action")
		return hook.Allow(), nil
	})
}

// PerformanceConfig configures the performance hook.
type PerformanceConfig struct {
	// Timings holds timers and samples (default: a new isolated store).
	Timings *Timings
	// Metrics records each duration to a histogram when set.
	Metrics telemetry.Metrics
	// Now is the clock (default: time.Now).
	Now Clock
}

// Performance times actions by kind and target. The pre-action stage
// starts the timer and the post-action or error stage stops it.
func Performance(cfg PerformanceConfig) hook.Hook {
	if cfg.Timings == nil {
		cfg.Timings = NewTimings()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return hook.New(NamePerformance, hook.TypeLogging, func(ctx context.Context, hc *hook.Context) (hook.Result, error) {
		if hc.Action == nil {
			return hook.Allow(), nil
		}
		key := hc.Action.Key()

		switch hc.Stage {
		case hook.StagePreAction:
			cfg.Timings.Start(hc.RunID, key, cfg.Now())
		case hook.StagePostAction, hook.StageError:
			d, ok := cfg.Timings.Stop(hc.RunID, key, cfg.Now())
			if !ok {
				break
			}
			avg, n := cfg.Timings.Average(key)
			if cfg.Metrics != nil {
				cfg.Metrics.RecordHookDuration(ctx, key, d)
			}
			logging.Debug().
				Add(logging.RunID(hc.RunID)).
				Add(logging.Str("key", key)).
				Add(logging.Duration(d)).
				Add(logging.Str("average", avg.String())).
				Add(logging.Int("samples", n)).
				Msg("action timing")
		}
		return hook.Allow(), nil
	})
}

// AuditTrail records a redacted entry for every stage it runs in.
// Sink failures are logged and never veto.
func AuditTrail(trail *audit.Trail) hook.Hook {
	if trail == nil {
		trail = audit.NewTrail()
	}

	return hook.New(NameAuditTrail, hook.TypeLogging, func(ctx context.Context, hc *hook.Context) (hook.Result, error) {
		phase := hc.Phase
		if !phase.IsValid() {
			phase = agent.PhaseAct
		}
		e := audit.NewEntry(hc.State, phase, hc.Action, hc.Result, hc.Err)
		e.Stage = string(hc.Stage)
		if e.RunID == "" {
			e.RunID = hc.RunID
		}
		if err := trail.Record(ctx, e); err != nil {
			logging.Warn().
				Add(logging.RunID(hc.RunID)).
				Add(logging.HookName(NameAuditTrail)).
				Add(logging.ErrorField(err)).
				Msg("audit sink failed")
		}
		return hook.Allow(), nil
	})
}
