package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/logging"
)

// Hook names.
const (
	NameContentSafety = "content-safety"
	NameRateLimit     = "rate-limiting"
	NameTokenBucket   = "token-bucket"
	NameDataPrivacy   = "data-privacy"
	NameHumanApproval = "human-approval"
	NamePolicy        = "policy"
	NameActionLogger  = "action-logger"
	NamePerformance   = "performance-logger"
	NameAuditTrail    = "audit-trail"
)

// DefaultDenylist holds the terms the content safety hook blocks.
var DefaultDenylist = []string{"spam", "guaranteed", "click here now", "limited time", "act now"}

// DefaultCriticalActions are tool targets flagged for human approval.
var DefaultCriticalActions = []string{"send_email", "create_lead", "write_file"}

// ContentSafetyConfig configures the content safety hook.
type ContentSafetyConfig struct {
	// Targets are the tool targets inspected (default: send_email).
	Targets []string
	// Fields are the text parameters inspected (default: subject, body).
	Fields []string
	// Denylist terms, matched case-insensitively (default: DefaultDenylist).
	Denylist []string
}

// ContentSafety blocks outgoing text containing denylisted terms.
func ContentSafety(cfg ContentSafetyConfig) hook.Hook {
	targets := orDefault(cfg.Targets, []string{"send_email"})
	fields := orDefault(cfg.Fields, []string{"subject", "body"})
	denylist := make([]string, 0, len(cfg.Denylist))
	for _, term := range orDefault(cfg.Denylist, DefaultDenylist) {
		denylist = append(denylist, strings.ToLower(term))
	}

	return hook.New(NameContentSafety, hook.TypeGuardRail, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
		a := hc.Action
		if a == nil || a.Kind != agent.ActionToolUse || !slices.Contains(targets, a.Target) {
			return hook.Allow(), nil
		}

		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if s, ok := a.Parameters[f].(string); ok {
				parts = append(parts, s)
			}
		}
		content := strings.ToLower(strings.Join(parts, " "))

		for _, term := range denylist {
			if strings.Contains(content, term) {
				return hook.Result{
					Allowed:              false,
					Message:              "Content flagged as potentially spam-like",
					RequireHumanApproval: true,
				}, nil
			}
		}
		return hook.Allow(), nil
	})
}

// sensitivePatterns detect SSNs, card numbers, live API keys and inline passwords.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	regexp.MustCompile(`\b\d{16}\b`),
	regexp.MustCompile(`\bsk_live_\w+\b`),
	regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`),
}

// ContainsSensitiveData reports whether text matches a sensitive data pattern.
func ContainsSensitiveData(text string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// DataPrivacy blocks actions whose parameters contain sensitive data.
func DataPrivacy() hook.Hook {
	return hook.New(NameDataPrivacy, hook.TypeGuardRail, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
		if hc.Action == nil {
			return hook.Allow(), nil
		}
		raw, err := json.Marshal(hc.Action.Parameters)
		if err != nil {
			return hook.Result{}, fmt.Errorf("failed to serialize parameters: %w", err)
		}
		if ContainsSensitiveData(string(raw)) {
			return hook.Result{
				Allowed:              false,
				Message:              "Action contains potentially sensitive data",
				RequireHumanApproval: true,
			}, nil
		}
		return hook.Allow(), nil
	})
}

// HumanApproval flags critical tool actions for approval without blocking them.
func HumanApproval(criticalActions []string) hook.Hook {
	critical := orDefault(criticalActions, DefaultCriticalActions)

	return hook.New(NameHumanApproval, hook.TypeHumanInLoop, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
		a := hc.Action
		if a == nil || a.Kind != agent.ActionToolUse || !slices.Contains(critical, a.Target) {
			return hook.Allow(), nil
		}

		logging.Warn().
			Add(logging.RunID(hc.RunID)).
			Add(logging.Target(a.Target)).
			Add(logging.HookName(NameHumanApproval)).
			Msg("human approval requested")

		return hook.Result{
			Allowed:              true,
			Message:              "Human approval required for " + a.Target,
			RequireHumanApproval: true,
		}, nil
	})
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
