package planner

import (
	"context"
	"strings"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// ActionPlanner derives the action for an iteration from a thought.
type ActionPlanner interface {
	// Instructions is appended to the system preamble of the think call.
	Instructions() string

	// Plan returns the action to execute.
	Plan(ctx context.Context, thought agent.Thought, state *agent.RunState) (agent.Action, error)
}

// RespondPlanner always answers the user with the thought's reasoning.
type RespondPlanner struct{}

// Instructions returns no extra instructions.
func (RespondPlanner) Instructions() string {
	return ""
}

// Plan returns a respond action carrying the reasoning.
func (RespondPlanner) Plan(_ context.Context, thought agent.Thought, _ *agent.RunState) (agent.Action, error) {
	return agent.NewRespondAction(thought.Reasoning), nil
}

const intentInstructions = `To use a capability, include a JSON object in your reply:
{"reasoning": "...", "next_action": "continue", "confidence": 0.9,
 "action": {"kind": "tool_use|skill_invoke|subagent_spawn|respond", "target": "<name>", "parameters": {}}}
For subagent_spawn put the task in parameters.task and the context fields it needs in parameters.context_keys.
Without an action object the reasoning is returned to the user.`

// IntentPlanner uses the action named in the provider's reply.
// Thoughts without a usable intent fall back to Fallback.
type IntentPlanner struct {
	Fallback ActionPlanner
}

// NewIntentPlanner creates an intent planner falling back to RespondPlanner.
func NewIntentPlanner() *IntentPlanner {
	return &IntentPlanner{Fallback: RespondPlanner{}}
}

// Instructions describes the structured reply format.
func (p *IntentPlanner) Instructions() string {
	return intentInstructions
}

// Plan converts the thought's intent into an action.
func (p *IntentPlanner) Plan(ctx context.Context, thought agent.Thought, state *agent.RunState) (agent.Action, error) {
	in := thought.Intent
	if in == nil || !in.Kind.IsValid() || strings.TrimSpace(in.Target) == "" {
		return p.fallback().Plan(ctx, thought, state)
	}
	params := in.Parameters
	if params == nil {
		params = map[string]any{}
	}
	return agent.Action{
		Kind:       in.Kind,
		Target:     in.Target,
		Parameters: params,
		Metadata:   map[string]any{"confidence": thought.Confidence},
	}, nil
}

func (p *IntentPlanner) fallback() ActionPlanner {
	if p.Fallback == nil {
		return RespondPlanner{}
	}
	return p.Fallback
}

// PlannerFunc adapts a function to the ActionPlanner interface.
type PlannerFunc func(ctx context.Context, thought agent.Thought, state *agent.RunState) (agent.Action, error)

// Instructions returns no extra instructions.
func (f PlannerFunc) Instructions() string {
	return ""
}

// Plan calls f.
func (f PlannerFunc) Plan(ctx context.Context, thought agent.Thought, state *agent.RunState) (agent.Action, error) {
	return f(ctx, thought, state)
}

// NewActionPlanner returns the planner registered under name.
// Unknown names yield a RespondPlanner.
func NewActionPlanner(name string) ActionPlanner {
	if name == "intent" {
		return NewIntentPlanner()
	}
	return RespondPlanner{}
}

var (
	_ ActionPlanner = RespondPlanner{}
	_ ActionPlanner = (*IntentPlanner)(nil)
	_ ActionPlanner = PlannerFunc(nil)
)
