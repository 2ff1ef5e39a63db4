// Package agent provides the core domain model for the orchestration loop.
package agent

// Phase identifies the step of the observe, think, act, learn cycle a run is in.
type Phase string

const (
	PhaseObserve Phase = "observe"
	PhaseThink   Phase = "think"
	PhaseAct     Phase = "act"
	PhaseLearn   Phase = "learn"
)

// IsValid returns true if the phase is one of the four loop phases.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseObserve, PhaseThink, PhaseAct, PhaseLearn:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Next returns the phase that follows p in an uninterrupted iteration.
func (p Phase) Next() Phase {
	switch p {
	case PhaseObserve:
		return PhaseThink
	case PhaseThink:
		return PhaseAct
	case PhaseAct:
		return PhaseLearn
	default:
		return PhaseObserve
	}
}

// AllPhases returns the loop phases in order.
func AllPhases() []Phase {
	return []Phase{PhaseObserve, PhaseThink, PhaseAct, PhaseLearn}
}
