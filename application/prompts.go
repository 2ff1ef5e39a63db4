package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
)

// Token limits of the two provider calls made per iteration.
const (
	ThinkMaxTokens = 2000
	LearnMaxTokens = 1000
)

// systemPrompt lists the goal and every registered capability.
func systemPrompt(goal string, registry capability.Registry, instructions string) string {
	var b strings.Builder
	b.WriteString("You are an intelligent agent following the observe-think-act-learn loop.\n\n")
	fmt.Fprintf(&b, "Your goal is to: %s\n\n", goal)

	writeSection(&b, "Available tools", registry.Tools())
	writeSection(&b, "Available skills", registry.Skills())
	writeSection(&b, "Available subagents", registry.Subworkers())

	b.WriteString("You should think carefully about each step and choose the best action to achieve the goal.")
	if instructions != "" {
		b.WriteString("\n\n")
		b.WriteString(instructions)
	}
	return b.String()
}

func writeSection[C capability.Capability](b *strings.Builder, title string, caps []C) {
	b.WriteString(title)
	b.WriteString(":\n")
	if len(caps) == 0 {
		b.WriteString("(none)\n\n")
		return
	}
	for _, c := range caps {
		fmt.Fprintf(b, "- %s: %s\n", c.Name(), c.Description())
	}
	b.WriteString("\n")
}

// thinkPrompt asks the provider to reason about the serialized observation.
func thinkPrompt(observation string) string {
	return `Current observation:
` + observation + `

Based on this observation, think about:
1. What is the current state?
2. What do I need to do next to achieve the goal?
3. Which tool, skill, or subagent should I use?
4. Am I close to achieving the goal?

Respond with your reasoning and next action.

If the goal is achieved, respond with "` + agent.SignalGoalAchieved + `" as the next action.`
}

// learnPrompt asks the provider to reflect on an action and its result.
func learnPrompt(action agent.Action, result any) string {
	return fmt.Sprintf(`You just executed this action: %s
The result was: %s

What did you learn? Provide:
1. Was this action successful? (yes/no)
2. Key insights from this result
3. What adjustments should be made for future actions?
4. Any new knowledge to remember?

Respond in JSON format:
{
  "success": true/false,
  "insights": ["insight 1", "insight 2"],
  "adjustments": ["adjustment 1", "adjustment 2"],
  "newKnowledge": {}
}`, toJSON(action), toJSON(result))
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
