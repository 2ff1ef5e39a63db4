package application

import (
	"context"
	"fmt"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/logging"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/resilience"
)

// Sub-worker action parameters.
const (
	ParamTask        = "task"
	ParamContext     = "context"
	ParamContextKeys = "context_keys"
)

// Dispatcher routes an action to the capability its kind and target name.
type Dispatcher struct {
	registry capability.Registry
	executor *resilience.Executor
}

// NewDispatcher creates a dispatcher. A nil executor gets the defaults.
func NewDispatcher(registry capability.Registry, executor *resilience.Executor) *Dispatcher {
	if executor == nil {
		executor = resilience.NewDefaultExecutor()
	}
	return &Dispatcher{registry: registry, executor: executor}
}

// Dispatch executes action and returns the capability's result unchanged.
// Misses and invocation failures are returned as ordinary errors.
func (d *Dispatcher) Dispatch(ctx context.Context, action agent.Action, state *agent.RunState) (any, error) {
	if action.Kind == agent.ActionRespond {
		return action.Parameters, nil
	}

	kind, ok := capability.KindFor(action.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", agent.ErrUnknownActionKind, action.Kind)
	}

	c, err := capability.Lookup(d.registry, kind, action.Target)
	if err != nil {
		return nil, err
	}

	in, err := d.input(c, action, state)
	if err != nil {
		return nil, err
	}

	logging.Debug().
		Add(logging.RunID(runIDOf(state))).
		Add(logging.Action(action)).
		Add(logging.Target(action.Target)).
		Msg("dispatching action")

	return d.executor.Invoke(ctx, string(kind)+":"+c.Name(), func(ctx context.Context) (any, error) {
		return c.Invoke(ctx, in)
	})
}

// input builds the variant input for c.
func (d *Dispatcher) input(c capability.Capability, action agent.Action, state *agent.RunState) (capability.Input, error) {
	switch c := c.(type) {
	case capability.Tool:
		params := action.Parameters
		if params == nil {
			params = map[string]any{}
		}
		if err := c.Schema().Validate(params); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", capability.ErrInvalidInput, c.Name(), err)
		}
		return capability.ToolInput{Parameters: params}, nil
	case capability.Skill:
		return capability.SkillInput{State: state}, nil
	case capability.Subworker:
		return SubworkerInput(c, action.Parameters, state), nil
	default:
		return nil, fmt.Errorf("%w: %q", agent.ErrUnknownActionKind, action.Kind)
	}
}

// SubworkerInput builds the task and private context handed to w.
// The context is layered: a deep copy of the run context for non-isolated
// workers, then the run context fields named by context_keys, then a deep
// copy of the explicit context parameter. The worker never sees the run state.
func SubworkerInput(w capability.Subworker, params map[string]any, state *agent.RunState) capability.SubworkerInput {
	shared := make(map[string]any)

	var runCtx map[string]any
	if state != nil {
		runCtx = state.Context
	}

	if !w.Isolated() {
		for k, v := range runCtx {
			shared[k] = deepCopy(v)
		}
	}
	for _, key := range contextKeys(params[ParamContextKeys]) {
		if v, ok := runCtx[key]; ok {
			shared[key] = deepCopy(v)
		}
	}
	if explicit, ok := params[ParamContext].(map[string]any); ok {
		for k, v := range explicit {
			shared[k] = deepCopy(v)
		}
	}

	task, _ := params[ParamTask].(string)
	return capability.SubworkerInput{Task: task, Context: shared}
}

func contextKeys(v any) []string {
	switch keys := v.(type) {
	case []string:
		return keys
	case []any:
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			if s, ok := k.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{keys}
	default:
		return nil
	}
}

// deepCopy copies JSON-shaped values so a sub-worker cannot reach back into
// the run context. Other values are shared as-is.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []byte:
		return append([]byte(nil), val...)
	default:
		return v
	}
}

func runIDOf(state *agent.RunState) string {
	if state == nil {
		return ""
	}
	return state.RunID
}
