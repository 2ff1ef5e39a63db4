// Package capability defines the invokable units an agent can dispatch actions to.
package capability

import (
	"context"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// Kind tags a capability variant.
type Kind string

const (
	KindTool      Kind = "tool"
	KindSkill     Kind = "skill"
	KindSubworker Kind = "subworker"
)

// KindFor returns the capability kind an action kind is dispatched to.
// The respond action has no capability and reports false.
func KindFor(k agent.ActionKind) (Kind, bool) {
	switch k {
	case agent.ActionToolUse:
		return KindTool, true
	case agent.ActionSkillInvoke:
		return KindSkill, true
	case agent.ActionSubagentSpawn:
		return KindSubworker, true
	default:
		return "", false
	}
}

// Input is the variant-specific argument passed to Invoke.
// Only ToolInput, SkillInput and SubworkerInput implement it.
type Input interface {
	kind() Kind
}

// ToolInput carries the action parameters for a tool.
type ToolInput struct {
	Parameters map[string]any
}

func (ToolInput) kind() Kind { return KindTool }

// SkillInput gives a skill read access to the whole run state.
type SkillInput struct {
	State *agent.RunState
}

func (SkillInput) kind() Kind { return KindSkill }

// SubworkerInput carries a task and a private copy of the context it needs.
type SubworkerInput struct {
	Task    string
	Context map[string]any
}

func (SubworkerInput) kind() Kind { return KindSubworker }

// Capability is a named, invokable unit of external behavior.
type Capability interface {
	// Name returns the stable identifier actions target.
	Name() string

	// Description returns a human-readable description for prompts.
	Description() string

	// Kind returns the variant tag.
	Kind() Kind

	// Invoke runs the capability. Input must match Kind.
	Invoke(ctx context.Context, in Input) (any, error)
}

// Category tags a tool's origin.
type Category string

const (
	CategoryBuiltin Category = "builtin"
	CategoryCustom  Category = "custom"
)

// Tool is a capability that sees only its own parameters.
type Tool interface {
	Capability
	Category() Category
	Schema() *Schema
}

// Skill is a domain capability that reads the run state.
type Skill interface {
	Capability
	Domain() string
	AutoInvoke() bool
	Triggers() []string
}

// Subworker is a delegated worker given a task and a context copy.
type Subworker interface {
	Capability
	// Isolated reports whether the worker must only see the fields it is handed.
	Isolated() bool
}

func mismatch(want Kind, in Input) error {
	got := Kind("nil")
	if in != nil {
		got = in.kind()
	}
	return &InputMismatchError{Want: want, Got: got}
}
