package agent

import (
	"maps"

	"github.com/dokkiitech/LinkDeck-sub000/domain/memory"
)

// StopReason records why a run ended.
type StopReason string

const (
	StopGoalAchieved  StopReason = "goal_achieved"
	StopMaxIterations StopReason = "max_iterations"
	StopCritical      StopReason = "critical_error"
	StopCancelled     StopReason = "cancelled"
)

// RunResult is returned to the caller when a run ends.
// Success is always true; StopReason and Error tell early termination apart.
type RunResult struct {
	Success    bool            `json:"success"`
	Result     any             `json:"result"`
	Iterations int             `json:"iterations"`
	Log        []string        `json:"logs,omitempty"`
	Memory     []memory.Record `json:"memory"`
	StopReason StopReason      `json:"stopReason"`
	Error      string          `json:"error,omitempty"`
}

// ResultKey is the context key whose value becomes the run result when present.
const ResultKey = "result"

// NewRunResult builds the result for a finished run.
func NewRunResult(state *RunState, reason StopReason, log []string) *RunResult {
	var result any
	if v, ok := state.Context[ResultKey]; ok {
		result = v
	} else {
		result = maps.Clone(state.Context)
	}
	return &RunResult{
		Success:    true,
		Result:     result,
		Iterations: state.Iteration,
		Log:        log,
		Memory:     state.Memory.All(),
		StopReason: reason,
	}
}
