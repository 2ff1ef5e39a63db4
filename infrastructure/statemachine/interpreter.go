package statemachine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/statekit"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// ErrInvalidTransition indicates an event the current phase does not accept.
var ErrInvalidTransition = errors.New("invalid phase transition")

// Interpreter wraps the statekit interpreter for one run.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates an interpreter bound to state.
func NewInterpreter(machine *statekit.MachineConfig[*Context], state *agent.RunState) *Interpreter {
	ctx := &Context{State: state}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{interp: interp, ctx: ctx}
}

// Start enters the observe phase.
func (i *Interpreter) Start() {
	i.interp.Start()
	if i.ctx.State != nil {
		i.ctx.State.Phase = agent.PhaseObserve
	}
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Current returns the current machine state ID.
func (i *Interpreter) Current() string {
	return string(i.interp.State().Value)
}

// Enter moves to phase p. Entering the current phase is a no-op.
func (i *Interpreter) Enter(p agent.Phase) error {
	if i.Current() == string(p) {
		return nil
	}
	return i.send(EventFor(p))
}

// Finish moves to the final state.
func (i *Interpreter) Finish() error {
	if i.Done() {
		return nil
	}
	return i.send(EventFinish)
}

// CanSend reports whether the current phase accepts the event.
func (i *Interpreter) CanSend(e statekit.EventType) bool {
	return slices.Contains(transitions[agent.Phase(i.Current())], e)
}

func (i *Interpreter) send(e statekit.EventType) error {
	if !i.CanSend(e) {
		return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, e, i.Current())
	}
	i.interp.Send(statekit.Event{Type: e})
	if p := agent.Phase(i.Current()); p.IsValid() && i.ctx.State != nil {
		i.ctx.State.Phase = p
	}
	return nil
}

// Done returns true once the final state is reached.
func (i *Interpreter) Done() bool {
	return i.interp.Done()
}

// Matches checks if the current state matches the given state ID.
func (i *Interpreter) Matches(stateID string) bool {
	return i.interp.Matches(statekit.StateID(stateID))
}

// History returns the recorded transitions.
func (i *Interpreter) History() []Transition {
	out := make([]Transition, len(i.ctx.History))
	copy(out, i.ctx.History)
	return out
}
