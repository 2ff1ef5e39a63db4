package agent

import (
	"maps"

	"github.com/dokkiitech/LinkDeck-sub000/domain/memory"
)

// RunState is the mutable state of a single run.
// It is owned by the run that created it and must not be shared.
type RunState struct {
	RunID     string
	Goal      string
	Phase     Phase
	Iteration int
	Context   map[string]any
	Memory    *memory.Store
}

// NewRunState creates the initial state for a run.
// The initial context is copied so the caller's map is never mutated.
func NewRunState(runID, goal string, initial map[string]any, memoryCapacity int) *RunState {
	ctx := make(map[string]any, len(initial))
	maps.Copy(ctx, initial)
	return &RunState{
		RunID:   runID,
		Goal:    goal,
		Phase:   PhaseObserve,
		Context: ctx,
		Memory:  memory.NewStore(memoryCapacity),
	}
}

// SetVar sets a context value.
func (s *RunState) SetVar(key string, value any) {
	s.Context[key] = value
}

// GetVar retrieves a context value.
func (s *RunState) GetVar(key string) (any, bool) {
	v, ok := s.Context[key]
	return v, ok
}

// Merge writes every entry of knowledge into the context, last write wins.
func (s *RunState) Merge(knowledge map[string]any) {
	maps.Copy(s.Context, knowledge)
}
