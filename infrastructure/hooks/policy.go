package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/logging"
)

// Policy decisions.
const (
	DecisionAllow           = "allow"
	DecisionBlock           = "block"
	DecisionRequireApproval = "require_approval"
)

// PolicyQuery is the rego query evaluated for each action.
const PolicyQuery = "data.agent_policy.decision"

// ErrPolicyDecision indicates the policy returned something other than a known decision.
var ErrPolicyDecision = errors.New("unexpected policy decision")

// DefaultPolicy allows everything except shell-like targets.
const DefaultPolicy = `
package agent_policy

default decision = "allow"

decision = "block" {
	input.kind == "tool_use"
	input.target == "run_command"
}

decision = "require_approval" {
	input.kind == "subagent_spawn"
	input.iteration > 5
}
`

// PolicyEngine evaluates a prepared rego query.
type PolicyEngine struct {
	query rego.PreparedEvalQuery
}

// NewPolicyEngine compiles a rego module defining data.agent_policy.decision.
func NewPolicyEngine(ctx context.Context, module string) (*PolicyEngine, error) {
	r := rego.New(
		rego.Query(PolicyQuery),
		rego.Module("agent_policy.rego", module),
	)
	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy: %w", err)
	}
	return &PolicyEngine{query: query}, nil
}

// Evaluate returns the decision and optional reason for input.
// The rule may produce a string or an object {decision, reason}.
// An undefined decision is an allow.
func (e *PolicyEngine) Evaluate(ctx context.Context, input map[string]any) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "", nil
	}

	var decision, reason string
	switch v := results[0].Expressions[0].Value.(type) {
	case string:
		decision = v
	case map[string]any:
		decision, _ = v["decision"].(string)
		reason, _ = v["reason"].(string)
	}

	switch decision {
	case DecisionAllow, DecisionBlock, DecisionRequireApproval:
		return decision, reason, nil
	default:
		return "", "", fmt.Errorf("%w: %v", ErrPolicyDecision, results[0].Expressions[0].Value)
	}
}

// Policy vetoes or flags actions according to engine.
// Evaluation errors are returned to the pipeline, which fails closed by default.
func Policy(engine *PolicyEngine) hook.Hook {
	return hook.New(NamePolicy, hook.TypeGuardRail, func(ctx context.Context, hc *hook.Context) (hook.Result, error) {
		a := hc.Action
		if a == nil {
			return hook.Allow(), nil
		}

		params := a.Parameters
		if params == nil {
			params = map[string]any{}
		}
		decision, reason, err := engine.Evaluate(ctx, map[string]any{
			"kind":       string(a.Kind),
			"target":     a.Target,
			"parameters": params,
			"iteration":  hc.Iteration(),
			"goal":       hc.Goal(),
		})
		if err != nil {
			return hook.Result{}, err
		}

		switch decision {
		case DecisionBlock:
			msg := "Blocked by policy"
			if reason != "" {
				msg += ": " + reason
			}
			return hook.Block(msg), nil
		case DecisionRequireApproval:
			logging.Warn().
				Add(logging.RunID(hc.RunID)).
				Add(logging.Target(a.Target)).
				Add(logging.HookName(NamePolicy)).
				Add(logging.Reason(reason)).
				Msg("policy requires approval")
			msg := "Policy requires approval for " + a.Target
			if reason != "" {
				msg += ": " + reason
			}
			return hook.Result{Allowed: true, Message: msg, RequireHumanApproval: true}, nil
		default:
			return hook.Allow(), nil
		}
	})
}
