package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/planner"
)

const summarizerMaxTokens = 1000

// Summary is returned by the summarizer sub-worker.
type Summary struct {
	Task    string   `json:"task"`
	Summary string   `json:"summary"`
	Fields  []string `json:"fields"`
}

// Summarizer is an isolated sub-worker that summarizes the context it is handed.
// With a provider it asks the model; without one it lists the fields it received.
func Summarizer(provider planner.Provider) capability.Subworker {
	return capability.NewSubworker(WorkerSummarizer).
		WithDescription("Summarize the context fields named in context_keys for a task").
		WithIsolation(true).
		WithHandler(func(ctx context.Context, task string, shared map[string]any) (any, error) {
			fields := make([]string, 0, len(shared))
			for k := range shared {
				fields = append(fields, k)
			}
			sort.Strings(fields)

			if provider == nil {
				return Summary{Task: task, Summary: localSummary(shared, fields), Fields: fields}, nil
			}

			data, err := json.MarshalIndent(shared, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to serialize context: %w", err)
			}
			text, err := planner.Complete(ctx, provider,
				"You are a concise summarizer. Answer in at most five sentences.",
				fmt.Sprintf("Task: %s\n\nContext:\n%s", task, data),
				summarizerMaxTokens)
			if err != nil {
				return nil, err
			}
			return Summary{Task: task, Summary: strings.TrimSpace(text), Fields: fields}, nil
		}).
		MustBuild()
}

func localSummary(shared map[string]any, fields []string) string {
	if len(fields) == 0 {
		return "no context provided"
	}
	parts := make([]string, 0, len(fields))
	for _, k := range fields {
		parts = append(parts, fmt.Sprintf("%s=%s", k, brief(shared[k])))
	}
	return strings.Join(parts, "; ")
}

func brief(v any) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprintf("%v", val)
		} else {
			s = string(data)
		}
	}
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
