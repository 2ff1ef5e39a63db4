package planner

import (
	"encoding/json"
	"strings"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// DefaultConfidence is assigned to thoughts parsed from unstructured text.
const DefaultConfidence = 0.8

// ExtractJSONObject returns the first balanced {...} object in text.
// Braces inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end := matchBrace(text, start); end > 0 {
			return text[start : end+1], true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(text string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

type thoughtPayload struct {
	Reasoning    string              `json:"reasoning"`
	NextAction   string              `json:"next_action"`
	Confidence   *float64            `json:"confidence"`
	Alternatives []string            `json:"alternatives"`
	Action       *agent.ActionIntent `json:"action"`
}

// ParseThought converts a provider reply into a Thought.
// The terminal marker anywhere in the reply ends the run regardless of structure.
func ParseThought(text string) agent.Thought {
	thought := agent.Thought{
		Reasoning:  strings.TrimSpace(text),
		NextAction: agent.SignalContinue,
		Confidence: DefaultConfidence,
	}

	if raw, ok := ExtractJSONObject(text); ok {
		var p thoughtPayload
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			if p.Reasoning != "" {
				thought.Reasoning = p.Reasoning
			}
			if p.NextAction != "" {
				thought.NextAction = p.NextAction
			}
			if p.Confidence != nil && *p.Confidence >= 0 && *p.Confidence <= 1 {
				thought.Confidence = *p.Confidence
			}
			thought.Alternatives = p.Alternatives
			thought.Intent = p.Action
		}
	}

	if agent.ContainsTerminalMarker(text) {
		thought.NextAction = agent.SignalGoalAchieved
	} else {
		thought.NextAction = agent.SignalContinue
	}
	return thought
}

// ParseLearning converts a reflection reply into a Learning.
// Replies without a parsable object yield agent.DefaultLearning.
func ParseLearning(text string) agent.Learning {
	raw, ok := ExtractJSONObject(text)
	if !ok {
		return agent.DefaultLearning()
	}
	var l agent.Learning
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return agent.DefaultLearning()
	}
	if l.Insights == nil {
		l.Insights = []string{}
	}
	if l.Adjustments == nil {
		l.Adjustments = []string{}
	}
	return l
}
