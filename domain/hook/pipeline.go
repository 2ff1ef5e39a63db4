package hook

import "context"

// Pipeline is the ordered set of hooks registered for a run.
// Registration order is evaluation order within every stage.
type Pipeline struct {
	hooks    []Hook
	failOpen bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithFailOpen lets pre-action handler errors pass instead of vetoing.
// Post-action and error stages always tolerate handler errors.
func WithFailOpen(failOpen bool) PipelineOption {
	return func(p *Pipeline) {
		p.failOpen = failOpen
	}
}

// NewPipeline creates an empty pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{hooks: make([]Hook, 0)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Use appends hooks. Invalid hooks are rejected and nothing is added.
func (p *Pipeline) Use(hooks ...Hook) error {
	for _, h := range hooks {
		if err := h.Validate(); err != nil {
			return &InvalidHookError{Name: h.Name, Err: err}
		}
	}
	p.hooks = append(p.hooks, hooks...)
	return nil
}

// Len returns the number of registered hooks.
func (p *Pipeline) Len() int {
	return len(p.hooks)
}

// Hooks returns the hooks that run in the stage, in registration order.
func (p *Pipeline) Hooks(stage Stage) []Hook {
	var out []Hook
	for _, h := range p.hooks {
		if stage.Matches(h.Type) {
			out = append(out, h)
		}
	}
	return out
}

// Chain returns the middleware chain for the stage.
func (p *Pipeline) Chain(stage Stage) Middleware {
	hooks := p.Hooks(stage)
	failOpen := p.failOpen || !stage.CanVeto()
	links := make([]Middleware, len(hooks))
	for i, h := range hooks {
		links[i] = h.Middleware(failOpen)
	}
	return Chain(links...)
}

// RunStage evaluates the stage. The first hook that disallows stops evaluation.
func (p *Pipeline) RunStage(ctx context.Context, stage Stage, hc *Context) Outcome {
	hc.Stage = stage
	return p.Chain(stage)(Allowed())(ctx, hc)
}
