package capability

import (
	"context"
	"fmt"
)

// ToolHandler executes a tool with validated parameters.
type ToolHandler func(ctx context.Context, params map[string]any) (any, error)

// ToolDefinition is the concrete Tool built by ToolBuilder.
type ToolDefinition struct {
	name        string
	description string
	category    Category
	schema      *Schema
	handler     ToolHandler
}

func (d *ToolDefinition) Name() string        { return d.name }
func (d *ToolDefinition) Description() string { return d.description }
func (d *ToolDefinition) Kind() Kind          { return KindTool }
func (d *ToolDefinition) Category() Category  { return d.category }
func (d *ToolDefinition) Schema() *Schema     { return d.schema }

// Invoke validates the parameters against the schema and runs the handler.
func (d *ToolDefinition) Invoke(ctx context.Context, in Input) (any, error) {
	ti, ok := in.(ToolInput)
	if !ok {
		return nil, mismatch(KindTool, in)
	}
	if d.handler == nil {
		return nil, ErrNoHandler
	}
	if err := d.schema.Validate(ti.Parameters); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, d.name, err)
	}
	return d.handler(ctx, ti.Parameters)
}

// ToolBuilder provides a fluent API for constructing tools.
type ToolBuilder struct {
	def *ToolDefinition
}

// NewTool starts building a tool. Tools default to the custom category.
func NewTool(name string) *ToolBuilder {
	return &ToolBuilder{def: &ToolDefinition{
		name:     name,
		category: CategoryCustom,
		schema:   NewSchema(),
	}}
}

// WithDescription sets the tool description.
func (b *ToolBuilder) WithDescription(desc string) *ToolBuilder {
	b.def.description = desc
	return b
}

// WithCategory sets the tool category.
func (b *ToolBuilder) WithCategory(c Category) *ToolBuilder {
	b.def.category = c
	return b
}

// WithSchema sets the parameter schema.
func (b *ToolBuilder) WithSchema(s *Schema) *ToolBuilder {
	if s != nil {
		b.def.schema = s
	}
	return b
}

// WithHandler sets the execution handler.
func (b *ToolBuilder) WithHandler(h ToolHandler) *ToolBuilder {
	b.def.handler = h
	return b
}

// Build validates and returns the tool.
func (b *ToolBuilder) Build() (*ToolDefinition, error) {
	if b.def.name == "" {
		return nil, ErrEmptyName
	}
	if b.def.handler == nil {
		return nil, ErrNoHandler
	}
	return b.def, nil
}

// MustBuild builds the tool and panics on error.
func (b *ToolBuilder) MustBuild() *ToolDefinition {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
