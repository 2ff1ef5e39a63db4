package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Known provider, planner, scope and builtin names.
var (
	ValidProviders = []string{"anthropic", "openai", "gemini", "scripted"}
	ValidPlanners  = []string{"respond", "intent"}
	ValidScopes    = []string{"shared", "isolated"}
)

// Validator validates agent configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *AgentConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateProvider(config)
	v.validateAgent(config)
	v.validateHooks(config)
	v.validateResilience(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *AgentConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateProvider(config *AgentConfig) {
	p := config.Provider
	if p.Type == "" {
		v.addError("provider.type", "provider type is required")
		return
	}
	if !contains(ValidProviders, p.Type) {
		v.addError("provider.type", fmt.Sprintf("unknown provider: %s", p.Type))
		return
	}
	if p.Type == "scripted" {
		if len(p.Replies) == 0 {
			v.addError("provider.replies", "scripted provider needs at least one reply")
		}
		return
	}
	if p.APIKey == "" {
		v.addError("provider.api_key", "api_key is required")
	}
}

func (v *Validator) validateAgent(config *AgentConfig) {
	if config.Agent.MaxIterations < 0 {
		v.addError("agent.max_iterations", "max_iterations must be non-negative")
	}
	if config.Agent.MemoryCapacity < 0 {
		v.addError("agent.memory_capacity", "memory_capacity must be non-negative")
	}
	if config.Agent.Planner != "" && !contains(ValidPlanners, config.Agent.Planner) {
		v.addError("agent.planner", fmt.Sprintf("unknown planner: %s", config.Agent.Planner))
	}
}

func (v *Validator) validateHooks(config *AgentConfig) {
	rl := config.Hooks.RateLimit
	if rl.Limit < 0 {
		v.addError("hooks.rate_limit.limit", "limit must be non-negative")
	}
	if rl.Window.Duration() < 0 {
		v.addError("hooks.rate_limit.window", "window must be non-negative")
	}
	if rl.Scope != "" && !contains(ValidScopes, rl.Scope) {
		v.addError("hooks.rate_limit.scope", fmt.Sprintf("invalid scope: %s", rl.Scope))
	}
	if rl.Redis.Address != "" && rl.Scope == "isolated" {
		v.addError("hooks.rate_limit.redis", "redis counters cannot be isolated")
	}
	if rl.Redis.DB < 0 {
		v.addError("hooks.rate_limit.redis.db", "db must be non-negative")
	}
	if config.Hooks.Policy.File != "" && config.Hooks.Policy.Inline != "" {
		v.addError("hooks.policy", "file and inline are mutually exclusive")
	}
	if config.Hooks.Logging.Audit.MaxEntries < 0 {
		v.addError("hooks.logging.audit.max_entries", "max_entries must be non-negative")
	}
}

func (v *Validator) validateResilience(config *AgentConfig) {
	r := config.Resilience
	if r.Timeout.Duration() < 0 {
		v.addError("resilience.timeout", "timeout must be non-negative")
	}
	if r.Retry.MaxAttempts < 0 {
		v.addError("resilience.retry.max_attempts", "max_attempts must be non-negative")
	}
	if r.CircuitBreaker.Threshold < 0 {
		v.addError("resilience.circuit_breaker.threshold", "threshold must be non-negative")
	}
	if r.MaxConcurrent < 0 {
		v.addError("resilience.max_concurrent", "max_concurrent must be non-negative")
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
