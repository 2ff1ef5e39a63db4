package capability

// Registry holds the capabilities supplied for a run.
// This is a repository interface; implementations are in infrastructure.
// Listing preserves registration order.
type Registry interface {
	// RegisterTool adds a tool.
	RegisterTool(t Tool) error

	// RegisterSkill adds a skill.
	RegisterSkill(s Skill) error

	// RegisterSubworker adds a sub-worker.
	RegisterSubworker(w Subworker) error

	// Tool retrieves a tool by name.
	Tool(name string) (Tool, bool)

	// Skill retrieves a skill by name.
	Skill(name string) (Skill, bool)

	// Subworker retrieves a sub-worker by name.
	Subworker(name string) (Subworker, bool)

	// Tools returns all tools in registration order.
	Tools() []Tool

	// Skills returns all skills in registration order.
	Skills() []Skill

	// Subworkers returns all sub-workers in registration order.
	Subworkers() []Subworker
}

// Lookup resolves a capability of the given kind, returning a NotFoundError on a miss.
func Lookup(r Registry, kind Kind, name string) (Capability, error) {
	var (
		c  Capability
		ok bool
	)
	switch kind {
	case KindTool:
		c, ok = r.Tool(name)
	case KindSkill:
		c, ok = r.Skill(name)
	case KindSubworker:
		c, ok = r.Subworker(name)
	}
	if !ok {
		return nil, &NotFoundError{Kind: kind, Name: name}
	}
	return c, nil
}

// Names returns the names of caps in order.
func Names[C Capability](caps []C) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.Name()
	}
	return names
}
