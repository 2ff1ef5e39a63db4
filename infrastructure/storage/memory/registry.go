// Package memory provides in-memory storage implementations.
package memory

import (
	"fmt"
	"sync"

	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
)

// ordered keeps capabilities of one kind in registration order.
type ordered[C capability.Capability] struct {
	byName map[string]C
	order  []C
}

func newOrdered[C capability.Capability]() ordered[C] {
	return ordered[C]{byName: make(map[string]C)}
}

func (o *ordered[C]) add(kind capability.Kind, c C) error {
	if c.Name() == "" {
		return capability.ErrEmptyName
	}
	if _, exists := o.byName[c.Name()]; exists {
		return fmt.Errorf("%w: %s %q", capability.ErrDuplicate, kind, c.Name())
	}
	o.byName[c.Name()] = c
	o.order = append(o.order, c)
	return nil
}

func (o *ordered[C]) list() []C {
	out := make([]C, len(o.order))
	copy(out, o.order)
	return out
}

// Registry is an in-memory implementation of capability.Registry.
type Registry struct {
	tools      ordered[capability.Tool]
	skills     ordered[capability.Skill]
	subworkers ordered[capability.Subworker]
	mu         sync.RWMutex
}

// NewRegistry creates a new in-memory capability registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:      newOrdered[capability.Tool](),
		skills:     newOrdered[capability.Skill](),
		subworkers: newOrdered[capability.Subworker](),
	}
}

// RegisterTool adds a tool to the registry.
func (r *Registry) RegisterTool(t capability.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tools.add(capability.KindTool, t)
}

// RegisterSkill adds a skill to the registry.
func (r *Registry) RegisterSkill(s capability.Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skills.add(capability.KindSkill, s)
}

// RegisterSubworker adds a sub-worker to the registry.
func (r *Registry) RegisterSubworker(w capability.Subworker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subworkers.add(capability.KindSubworker, w)
}

// Tool retrieves a tool by name.
func (r *Registry) Tool(name string) (capability.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools.byName[name]
	return t, ok
}

// Skill retrieves a skill by name.
func (r *Registry) Skill(name string) (capability.Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills.byName[name]
	return s, ok
}

// Subworker retrieves a sub-worker by name.
func (r *Registry) Subworker(name string) (capability.Subworker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.subworkers.byName[name]
	return w, ok
}

// Tools returns all tools in registration order.
func (r *Registry) Tools() []capability.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools.list()
}

// Skills returns all skills in registration order.
func (r *Registry) Skills() []capability.Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skills.list()
}

// Subworkers returns all sub-workers in registration order.
func (r *Registry) Subworkers() []capability.Subworker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subworkers.list()
}

// Count returns the number of registered capabilities of every kind.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools.order) + len(r.skills.order) + len(r.subworkers.order)
}

var _ capability.Registry = (*Registry)(nil)
