package agent

import "strings"

// Next-action signals carried by a Thought.
const (
	SignalGoalAchieved = "GOAL_ACHIEVED"
	SignalContinue     = "continue"
)

// Thought is the parsed reply of the reasoning provider to an observation.
type Thought struct {
	Reasoning    string        `json:"reasoning"`
	NextAction   string        `json:"nextAction"`
	Confidence   float64       `json:"confidence"`
	Alternatives []string      `json:"alternatives,omitempty"`
	Intent       *ActionIntent `json:"intent,omitempty"`
}

// IsTerminal returns true if the thought ends the run.
func (t Thought) IsTerminal() bool {
	return t.NextAction == SignalGoalAchieved
}

// ContainsTerminalMarker reports whether raw provider text signals completion.
func ContainsTerminalMarker(text string) bool {
	return strings.Contains(text, SignalGoalAchieved)
}

// ActionIntent is an action named explicitly by the reasoning provider.
type ActionIntent struct {
	Kind       ActionKind     `json:"kind"`
	Target     string         `json:"target"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Learning is the reflection produced after an action.
type Learning struct {
	Success      bool           `json:"success"`
	Insights     []string       `json:"insights"`
	Adjustments  []string       `json:"adjustments"`
	NewKnowledge map[string]any `json:"newKnowledge,omitempty"`
}

// DefaultLearning is used when the reflection could not be parsed.
func DefaultLearning() Learning {
	return Learning{
		Success:     true,
		Insights:    []string{"Action completed"},
		Adjustments: []string{},
	}
}
