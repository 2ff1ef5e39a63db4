package capability

import "context"

// SubworkerHandler executes a delegated task.
type SubworkerHandler func(ctx context.Context, task string, shared map[string]any) (any, error)

// SubworkerDefinition is the concrete Subworker built by SubworkerBuilder.
type SubworkerDefinition struct {
	name        string
	description string
	isolated    bool
	handler     SubworkerHandler
}

func (d *SubworkerDefinition) Name() string        { return d.name }
func (d *SubworkerDefinition) Description() string { return d.description }
func (d *SubworkerDefinition) Kind() Kind          { return KindSubworker }
func (d *SubworkerDefinition) Isolated() bool      { return d.isolated }

// Invoke runs the sub-worker with its task and context copy.
func (d *SubworkerDefinition) Invoke(ctx context.Context, in Input) (any, error) {
	wi, ok := in.(SubworkerInput)
	if !ok {
		return nil, mismatch(KindSubworker, in)
	}
	if d.handler == nil {
		return nil, ErrNoHandler
	}
	return d.handler(ctx, wi.Task, wi.Context)
}

// SubworkerBuilder provides a fluent API for constructing sub-workers.
type SubworkerBuilder struct {
	def *SubworkerDefinition
}

// NewSubworker starts building a sub-worker. Sub-workers are isolated by default.
func NewSubworker(name string) *SubworkerBuilder {
	return &SubworkerBuilder{def: &SubworkerDefinition{name: name, isolated: true}}
}

// WithDescription sets the sub-worker description.
func (b *SubworkerBuilder) WithDescription(desc string) *SubworkerBuilder {
	b.def.description = desc
	return b
}

// WithIsolation sets whether the sub-worker only sees the fields it is handed.
func (b *SubworkerBuilder) WithIsolation(isolated bool) *SubworkerBuilder {
	b.def.isolated = isolated
	return b
}

// WithHandler sets the execution handler.
func (b *SubworkerBuilder) WithHandler(h SubworkerHandler) *SubworkerBuilder {
	b.def.handler = h
	return b
}

// Build validates and returns the sub-worker.
func (b *SubworkerBuilder) Build() (*SubworkerDefinition, error) {
	if b.def.name == "" {
		return nil, ErrEmptyName
	}
	if b.def.handler == nil {
		return nil, ErrNoHandler
	}
	return b.def, nil
}

// MustBuild builds the sub-worker and panics on error.
func (b *SubworkerBuilder) MustBuild() *SubworkerDefinition {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
