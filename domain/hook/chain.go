package hook

import (
	"context"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// Outcome is the combined result of a stage.
type Outcome struct {
	Allowed bool
	// BlockedBy names the hook that vetoed, if any.
	BlockedBy string
	Message   string
	// ApprovalRequired lists hooks that flagged the action for human approval.
	ApprovalRequired []string
	// Modified is the last replacement payload returned by a hook.
	Modified any
	// Invoked lists the hooks that ran, in order.
	Invoked []string
	// Errors holds handler errors that were tolerated or caused the veto.
	Errors []error
}

// StageHandler evaluates the rest of a stage.
type StageHandler func(ctx context.Context, hc *Context) Outcome

// Middleware wraps a StageHandler. Returning without calling next short-circuits the stage.
type Middleware func(next StageHandler) StageHandler

// Chain composes middleware so Chain(A, B, C) runs A -> B -> C -> final.
func Chain(middlewares ...Middleware) Middleware {
	return func(final StageHandler) StageHandler {
		handler := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// Allowed is the terminal handler of every chain.
func Allowed() StageHandler {
	return func(context.Context, *Context) Outcome {
		return Outcome{Allowed: true}
	}
}

// Middleware adapts the hook into a chain link.
// A handler error vetoes unless failOpen is set, in which case the error is
// recorded and evaluation continues.
func (h Hook) Middleware(failOpen bool) Middleware {
	return func(next StageHandler) StageHandler {
		return func(ctx context.Context, hc *Context) Outcome {
			res, err := h.Handler(ctx, hc)
			var tolerated error
			if err != nil {
				if !failOpen {
					return Outcome{
						BlockedBy: h.Name,
						Message:   err.Error(),
						Invoked:   []string{h.Name},
						Errors:    []error{err},
					}
				}
				tolerated = err
				res = Allow()
			}

			if !res.Allowed {
				out := Outcome{
					BlockedBy: h.Name,
					Message:   res.Message,
					Invoked:   []string{h.Name},
				}
				if res.RequireHumanApproval {
					out.ApprovalRequired = []string{h.Name}
				}
				return out
			}

			if a, ok := modifiedAction(res.Modified); ok {
				hc.Action = a
			}

			out := next(ctx, hc)
			out.Invoked = append([]string{h.Name}, out.Invoked...)
			if res.RequireHumanApproval {
				out.ApprovalRequired = append([]string{h.Name}, out.ApprovalRequired...)
			}
			if res.Modified != nil && out.Modified == nil {
				out.Modified = res.Modified
			}
			if out.Message == "" {
				out.Message = res.Message
			}
			if tolerated != nil {
				out.Errors = append([]error{tolerated}, out.Errors...)
			}
			return out
		}
	}
}

func modifiedAction(v any) (*agent.Action, bool) {
	switch a := v.(type) {
	case agent.Action:
		return &a, true
	case *agent.Action:
		return a, a != nil
	default:
		return nil, false
	}
}

// ModifiedAction returns the replacement action carried by an outcome, if any.
func (o Outcome) ModifiedAction() (*agent.Action, bool) {
	return modifiedAction(o.Modified)
}
