package capability

import (
	"context"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// SkillHandler executes a skill against the run state.
type SkillHandler func(ctx context.Context, state *agent.RunState) (any, error)

// SkillDefinition is the concrete Skill built by SkillBuilder.
type SkillDefinition struct {
	name        string
	description string
	domain      string
	autoInvoke  bool
	triggers    []string
	handler     SkillHandler
}

func (d *SkillDefinition) Name() string        { return d.name }
func (d *SkillDefinition) Description() string { return d.description }
func (d *SkillDefinition) Kind() Kind          { return KindSkill }
func (d *SkillDefinition) Domain() string      { return d.domain }
func (d *SkillDefinition) AutoInvoke() bool    { return d.autoInvoke }
func (d *SkillDefinition) Triggers() []string  { return d.triggers }

// Invoke runs the skill with the run state.
func (d *SkillDefinition) Invoke(ctx context.Context, in Input) (any, error) {
	si, ok := in.(SkillInput)
	if !ok {
		return nil, mismatch(KindSkill, in)
	}
	if d.handler == nil {
		return nil, ErrNoHandler
	}
	return d.handler(ctx, si.State)
}

// SkillBuilder provides a fluent API for constructing skills.
type SkillBuilder struct {
	def *SkillDefinition
}

// NewSkill starts building a skill.
func NewSkill(name string) *SkillBuilder {
	return &SkillBuilder{def: &SkillDefinition{name: name}}
}

// WithDescription sets the skill description.
func (b *SkillBuilder) WithDescription(desc string) *SkillBuilder {
	b.def.description = desc
	return b
}

// WithDomain sets the domain tag, e.g. "sales".
func (b *SkillBuilder) WithDomain(domain string) *SkillBuilder {
	b.def.domain = domain
	return b
}

// WithAutoInvoke marks the skill for automatic invocation on a trigger match.
func (b *SkillBuilder) WithAutoInvoke(auto bool) *SkillBuilder {
	b.def.autoInvoke = auto
	return b
}

// WithTriggers sets the trigger keywords.
func (b *SkillBuilder) WithTriggers(triggers ...string) *SkillBuilder {
	b.def.triggers = append(b.def.triggers, triggers...)
	return b
}

// WithHandler sets the execution handler.
func (b *SkillBuilder) WithHandler(h SkillHandler) *SkillBuilder {
	b.def.handler = h
	return b
}

// Build validates and returns the skill.
func (b *SkillBuilder) Build() (*SkillDefinition, error) {
	if b.def.name == "" {
		return nil, ErrEmptyName
	}
	if b.def.handler == nil {
		return nil, ErrNoHandler
	}
	return b.def, nil
}

// MustBuild builds the skill and panics on error.
func (b *SkillBuilder) MustBuild() *SkillDefinition {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
