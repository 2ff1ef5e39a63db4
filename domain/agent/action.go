package agent

// ActionKind selects the capability variant an action is dispatched to.
type ActionKind string

const (
	ActionToolUse       ActionKind = "tool_use"
	ActionSkillInvoke   ActionKind = "skill_invoke"
	ActionSubagentSpawn ActionKind = "subagent_spawn"
	ActionRespond       ActionKind = "respond"
)

// IsValid returns true if the kind is one the dispatcher understands.
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionToolUse, ActionSkillInvoke, ActionSubagentSpawn, ActionRespond:
		return true
	default:
		return false
	}
}

// Action is the single unit of work chosen for an iteration.
type Action struct {
	Kind       ActionKind     `json:"type"`
	Target     string         `json:"target"`
	Parameters map[string]any `json:"parameters"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Key identifies the action by kind and target, e.g. "tool_use_echo".
func (a Action) Key() string {
	return string(a.Kind) + "_" + a.Target
}

// NewRespondAction creates an action that returns a message to the caller.
func NewRespondAction(message string) Action {
	return Action{
		Kind:       ActionRespond,
		Target:     "user",
		Parameters: map[string]any{"message": message},
	}
}
