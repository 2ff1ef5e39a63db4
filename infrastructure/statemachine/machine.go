// Package statemachine drives the observe/think/act/learn phases with statekit.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// PhaseDone is the final machine state; it has no agent.Phase counterpart.
const PhaseDone = "done"

// State IDs as StateID type for statekit.
const (
	stateObserve statekit.StateID = statekit.StateID(agent.PhaseObserve)
	stateThink   statekit.StateID = statekit.StateID(agent.PhaseThink)
	stateAct     statekit.StateID = statekit.StateID(agent.PhaseAct)
	stateLearn   statekit.StateID = statekit.StateID(agent.PhaseLearn)
	stateDone    statekit.StateID = PhaseDone
)

// Events accepted by the phase machine.
const (
	EventObserve statekit.EventType = "OBSERVE"
	EventThink   statekit.EventType = "THINK"
	EventAct     statekit.EventType = "ACT"
	EventLearn   statekit.EventType = "LEARN"
	EventFinish  statekit.EventType = "FINISH"
)

// Context carries the run state through the machine.
type Context struct {
	State   *agent.RunState
	History []Transition
}

// Transition is one recorded phase change.
type Transition struct {
	Iteration int
	Event     statekit.EventType
}

// NewPhaseMachine creates the loop statechart.
// Think and act may return to observe when an iteration ends early
// (terminal thought aside, a veto or an error).
func NewPhaseMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("agent-loop").
		WithInitial(stateObserve).
		WithContext(&Context{}).
		WithAction("syncPhase", syncPhase).
		WithAction("recordTransition", recordTransition).
		State(stateObserve).
			OnEntry("syncPhase").
			On(EventThink).Target(stateThink).Do("recordTransition").
			On(EventFinish).Target(stateDone).Do("recordTransition").
			Done().
		State(stateThink).
			OnEntry("syncPhase").
			On(EventAct).Target(stateAct).Do("recordTransition").
			On(EventObserve).Target(stateObserve).Do("recordTransition").
			On(EventFinish).Target(stateDone).Do("recordTransition").
			Done().
		State(stateAct).
			OnEntry("syncPhase").
			On(EventLearn).Target(stateLearn).Do("recordTransition").
			On(EventObserve).Target(stateObserve).Do("recordTransition").
			On(EventFinish).Target(stateDone).Do("recordTransition").
			Done().
		State(stateLearn).
			OnEntry("syncPhase").
			On(EventObserve).Target(stateObserve).Do("recordTransition").
			On(EventFinish).Target(stateDone).Do("recordTransition").
			Done().
		State(stateDone).
			Final().
			Done().
		Build()
}

// transitions lists the events each phase accepts.
var transitions = map[agent.Phase][]statekit.EventType{
	agent.PhaseObserve: {EventThink, EventFinish},
	agent.PhaseThink:   {EventAct, EventObserve, EventFinish},
	agent.PhaseAct:     {EventLearn, EventObserve, EventFinish},
	agent.PhaseLearn:   {EventObserve, EventFinish},
}

// EventFor returns the event that enters phase p.
func EventFor(p agent.Phase) statekit.EventType {
	switch p {
	case agent.PhaseObserve:
		return EventObserve
	case agent.PhaseThink:
		return EventThink
	case agent.PhaseAct:
		return EventAct
	case agent.PhaseLearn:
		return EventLearn
	default:
		return statekit.EventType(p)
	}
}

// phaseForEvent returns the phase an event enters, "" for FINISH.
func phaseForEvent(e statekit.EventType) agent.Phase {
	switch e {
	case EventObserve:
		return agent.PhaseObserve
	case EventThink:
		return agent.PhaseThink
	case EventAct:
		return agent.PhaseAct
	case EventLearn:
		return agent.PhaseLearn
	default:
		return ""
	}
}

// syncPhase mirrors the entered state onto the run state.
// Actions receive **Context since the machine context is *Context.
func syncPhase(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).State == nil {
		return
	}
	if p := phaseForEvent(event.Type); p != "" {
		(*ctx).State.Phase = p
	}
}

// recordTransition appends the event to the history.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	iteration := 0
	if c.State != nil {
		iteration = c.State.Iteration
	}
	c.History = append(c.History, Transition{Iteration: iteration, Event: event.Type})
}
