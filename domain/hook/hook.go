// Package hook provides the vetoable middleware chain run around action execution.
package hook

import (
	"context"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// Type classifies a hook and decides which stages it runs in.
type Type string

const (
	TypePreAction   Type = "pre-action"
	TypePostAction  Type = "post-action"
	TypeError       Type = "error"
	TypeLogging     Type = "logging"
	TypeGuardRail   Type = "guard-rail"
	TypeHumanInLoop Type = "human-in-loop"
)

// IsValid returns true if the type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypePreAction, TypePostAction, TypeError, TypeLogging, TypeGuardRail, TypeHumanInLoop:
		return true
	default:
		return false
	}
}

// Stage is a point in the iteration where hooks are consulted.
type Stage string

const (
	StagePreAction  Stage = "pre-action"
	StagePostAction Stage = "post-action"
	StageError      Stage = "error"
)

// Matches reports whether hooks of type t run in the stage.
// Logging hooks run in every stage; guard rails and human-in-loop hooks
// run before the action.
func (s Stage) Matches(t Type) bool {
	switch s {
	case StagePreAction:
		return t == TypePreAction || t == TypeGuardRail || t == TypeHumanInLoop || t == TypeLogging
	case StagePostAction:
		return t == TypePostAction || t == TypeLogging
	case StageError:
		return t == TypeError || t == TypeLogging
	default:
		return false
	}
}

// CanVeto reports whether a blocked outcome at this stage stops the action.
func (s Stage) CanVeto() bool {
	return s == StagePreAction
}

// Context is what a hook sees.
type Context struct {
	RunID  string
	Stage  Stage
	Phase  agent.Phase
	State  *agent.RunState
	Action *agent.Action
	Result any
	Err    error
}

// Iteration returns the current iteration, or 0 without state.
func (c *Context) Iteration() int {
	if c.State == nil {
		return 0
	}
	return c.State.Iteration
}

// Goal returns the run goal, or "" without state.
func (c *Context) Goal() string {
	if c.State == nil {
		return ""
	}
	return c.State.Goal
}

// Result is a hook's verdict.
type Result struct {
	Allowed bool
	// Modified replaces the pending action when it holds an agent.Action.
	Modified             any
	Message              string
	RequireHumanApproval bool
}

// Allow returns an allowing result.
func Allow() Result {
	return Result{Allowed: true}
}

// Block returns a vetoing result.
func Block(message string) Result {
	return Result{Allowed: false, Message: message}
}

// Handler evaluates a hook.
type Handler func(ctx context.Context, hc *Context) (Result, error)

// Hook is a named, typed handler.
type Hook struct {
	Name    string
	Type    Type
	Handler Handler
}

// New creates a hook.
func New(name string, t Type, h Handler) Hook {
	return Hook{Name: name, Type: t, Handler: h}
}

// Validate checks the hook is usable.
func (h Hook) Validate() error {
	if h.Name == "" {
		return ErrEmptyName
	}
	if !h.Type.IsValid() {
		return ErrInvalidType
	}
	if h.Handler == nil {
		return ErrNoHandler
	}
	return nil
}
