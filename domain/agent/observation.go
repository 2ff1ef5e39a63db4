package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dokkiitech/LinkDeck-sub000/domain/memory"
)

// ObservationKind classifies the source of an observation.
type ObservationKind string

const (
	ObservationUserInput      ObservationKind = "user_input"
	ObservationToolResult     ObservationKind = "tool_result"
	ObservationSubagentResult ObservationKind = "subagent_result"
	ObservationEnvironment    ObservationKind = "environment"
)

// Snapshot is the state read taken at the start of an iteration.
type Snapshot struct {
	Goal               string          `json:"goal"`
	Context            map[string]any  `json:"context"`
	Iteration          int             `json:"iteration"`
	AvailableTools     []string        `json:"availableTools"`
	AvailableSkills    []string        `json:"availableSkills"`
	AvailableSubagents []string        `json:"availableSubagents"`
	Memory             []memory.Record `json:"memory"`
}

// Observation is built fresh each iteration and discarded when it ends.
type Observation struct {
	Kind      ObservationKind `json:"type"`
	Content   Snapshot        `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewObservation creates an observation of the given kind taken at now.
func NewObservation(kind ObservationKind, now time.Time, content Snapshot) Observation {
	return Observation{
		Kind:      kind,
		Content:   content,
		Timestamp: now,
	}
}

// Serialize renders the observation as indented JSON for a prompt.
// Context and memory metadata values JSON cannot encode are rendered
// lossily: non-finite floats become null, anything else its %v text.
func (o Observation) Serialize() (string, error) {
	data, err := json.MarshalIndent(o, "", "  ")
	if err == nil {
		return string(data), nil
	}

	o.Content.Context = lossyMap(o.Content.Context)
	records := make([]memory.Record, len(o.Content.Memory))
	for i, rec := range o.Content.Memory {
		rec.Metadata = lossyMap(rec.Metadata)
		records[i] = rec
	}
	o.Content.Memory = records

	data, err = json.MarshalIndent(o, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func lossyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = lossy(v)
	}
	return out
}

func lossy(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return lossyMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = lossy(item)
		}
		return out
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil
		}
		return x
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return v
}
