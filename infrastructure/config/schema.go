package config

import (
	"encoding/json"

	domainconfig "github.com/dokkiitech/LinkDeck-sub000/domain/config"
	"github.com/dokkiitech/LinkDeck-sub000/pack/builtin"
)

// JSONSchema is the subset of JSON Schema used to describe agent configuration.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	AdditionalProperties *JSONSchema            `json:"additionalProperties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
}

// durationPattern matches Go duration strings such as "1h" or "250ms".
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

func str(desc string) *JSONSchema { return &JSONSchema{Type: "string", Description: desc} }

func boolean(desc string) *JSONSchema { return &JSONSchema{Type: "boolean", Description: desc} }

func count(desc string) *JSONSchema {
	zero := 0.0
	return &JSONSchema{Type: "integer", Description: desc, Minimum: &zero}
}

func duration(desc string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Pattern: durationPattern}
}

func stringList(desc string) *JSONSchema {
	return &JSONSchema{Type: "array", Description: desc, Items: &JSONSchema{Type: "string"}}
}

func object(desc string, props map[string]*JSONSchema) *JSONSchema {
	return &JSONSchema{Type: "object", Description: desc, Properties: props}
}

// GenerateSchema describes AgentConfig.
func GenerateSchema() *JSONSchema {
	root := object("Agent runtime configuration", map[string]*JSONSchema{
		"name":        str("Human-readable configuration name"),
		"version":     str("Configuration version"),
		"description": str("What the agent is for"),
		"provider": object("Reasoning provider", map[string]*JSONSchema{
			"type":     {Type: "string", Description: "Provider type", Enum: domainconfig.ValidProviders},
			"model":    str("Model identifier"),
			"api_key":  str("API key, usually ${ENV_VAR}"),
			"base_url": str("Endpoint override"),
			"replies":  stringList("Replies of the scripted provider"),
		}),
		"agent": object("Loop settings", map[string]*JSONSchema{
			"max_iterations":  count("Observe/think cycles per run (default 10)"),
			"memory_capacity": count("Learning records retained (default 100)"),
			"enable_logging":  boolean("Populate the run log"),
			"planner":         {Type: "string", Description: "Action planner", Enum: domainconfig.ValidPlanners, Default: "respond"},
			"default_goal":    str("Goal used when none is given"),
		}),
		"hooks": hooksSchema(),
		"tools": object("Builtin capabilities", map[string]*JSONSchema{
			"builtin": {Type: "array", Description: "Builtins to register", Items: &JSONSchema{Type: "string", Enum: builtin.Names()}},
			"root":    str("Directory file tools are confined to"),
		}),
		"resilience": object("External call protection", map[string]*JSONSchema{
			"timeout": duration("Bound on each provider or capability call"),
			"retry": object("Provider retries", map[string]*JSONSchema{
				"max_attempts":  count("Attempts including the first"),
				"initial_delay": duration("First retry delay"),
			}),
			"circuit_breaker": object("Per-target circuit breaker", map[string]*JSONSchema{
				"threshold": count("Consecutive failures before opening (0 disables)"),
				"timeout":   duration("Open duration"),
			}),
			"max_concurrent": count("Concurrent capability calls (0 = unlimited)"),
		}),
		"variables": {
			Type:                 "object",
			Description:          "Initial run context",
			AdditionalProperties: &JSONSchema{},
		},
	})
	root.Schema = "https://json-schema.org/draft/2020-12/schema"
	root.Title = "Agent Configuration"
	root.Required = []string{"name", "version", "provider"}
	return root
}

func hooksSchema() *JSONSchema {
	return object("Hook pipeline", map[string]*JSONSchema{
		"guard_rails":   boolean("Enable content safety, rate limiting and data privacy"),
		"human_in_loop": boolean("Flag critical actions for human approval"),
		"fail_open":     boolean("Let erroring pre-action hooks pass"),
		"content_safety": object("Spam denylist", map[string]*JSONSchema{
			"targets":  stringList("Tool targets inspected (default send_email)"),
			"fields":   stringList("Parameters inspected (default subject, body)"),
			"denylist": stringList("Case-insensitive phrases"),
		}),
		"rate_limit": object("Windowed rate limit", map[string]*JSONSchema{
			"limit":     count("Actions per window (default 10)"),
			"window":    duration("Window length (default 1h)"),
			"scope":     {Type: "string", Enum: domainconfig.ValidScopes, Default: "shared"},
			"namespace": str("Counter key prefix, e.g. a tenant"),
			"targets":   stringList("Tool targets counted (default send_email)"),
			"rate":      count("Token bucket refill per second (0 disables)"),
			"burst":     count("Token bucket size"),
			"redis": object("Share windows across processes through redis", map[string]*JSONSchema{
				"address":    str("host:port (empty keeps counters in memory)"),
				"password":   str("Password, usually ${ENV_VAR}"),
				"db":         count("Database number"),
				"key_prefix": str("Key prefix (default agent:)"),
			}),
		}),
		"human_approval": object("Approval flags", map[string]*JSONSchema{
			"critical_actions": stringList("Targets flagged for approval"),
		}),
		"policy": object("Rego guard rail", map[string]*JSONSchema{
			"file":   str("Path to a rego module"),
			"inline": str("Rego source"),
		}),
		"logging": object("Logging hooks", map[string]*JSONSchema{
			"action_log":  boolean("Log every action"),
			"performance": boolean("Time every action"),
			"audit": object("Audit trail", map[string]*JSONSchema{
				"enabled":     boolean("Record an audit trail"),
				"max_entries": count("Entries kept in memory"),
				"sqlite_path": str("Persist entries to this sqlite file"),
			}),
		}),
	})
}

// SchemaJSON returns the indented schema document.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(GenerateSchema(), "", "  ")
}
