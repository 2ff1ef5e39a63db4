package builtin

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
)

// Digest is returned by the context-digest skill.
type Digest struct {
	Goal        string   `json:"goal"`
	Iteration   int      `json:"iteration"`
	ContextKeys []string `json:"context_keys"`
	Memories    int      `json:"memories"`
	Insights    []string `json:"insights"`
}

// ContextDigest is a skill that reports what the run knows so far.
func ContextDigest() capability.Skill {
	return capability.NewSkill(SkillContextDigest).
		WithDescription("Report the goal, known context keys and recent insights").
		WithDomain("introspection").
		WithTriggers("what do I know", "progress", "status").
		WithHandler(func(_ context.Context, state *agent.RunState) (any, error) {
			keys := make([]string, 0, len(state.Context))
			for k := range state.Context {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			insights := make([]string, 0)
			for _, rec := range state.Memory.Recent(5) {
				var l agent.Learning
				if err := json.Unmarshal([]byte(rec.Content), &l); err == nil {
					insights = append(insights, l.Insights...)
				}
			}

			return Digest{
				Goal:        state.Goal,
				Iteration:   state.Iteration,
				ContextKeys: keys,
				Memories:    state.Memory.Len(),
				Insights:    insights,
			}, nil
		}).
		MustBuild()
}
