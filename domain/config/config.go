// Package config provides domain models for agent configuration.
package config

import "time"

// AgentConfig represents the complete agent configuration.
type AgentConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the agent's purpose.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Provider selects the reasoning provider.
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	// Agent contains loop settings.
	Agent AgentSettings `json:"agent,omitempty" yaml:"agent,omitempty"`
	// Hooks configures guard rails and logging hooks.
	Hooks HooksConfig `json:"hooks,omitempty" yaml:"hooks,omitempty"`
	// Tools selects builtin capabilities.
	Tools ToolsConfig `json:"tools,omitempty" yaml:"tools,omitempty"`
	// Resilience wraps external calls.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Variables contains the initial run context.
	Variables map[string]any `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// ProviderConfig selects and configures the reasoning provider.
type ProviderConfig struct {
	// Type is the provider (anthropic, openai, gemini, scripted).
	Type string `json:"type" yaml:"type"`
	// Model is the model identifier.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// APIKey authenticates with the provider; usually ${ENV_VAR}.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Replies are the canned replies of the scripted provider.
	Replies []string `json:"replies,omitempty" yaml:"replies,omitempty"`
}

// AgentSettings contains loop behavior settings.
type AgentSettings struct {
	// MaxIterations bounds the observe/think cycles of a run.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	// MemoryCapacity bounds the learning memory.
	MemoryCapacity int `json:"memory_capacity,omitempty" yaml:"memory_capacity,omitempty"`
	// EnableLogging populates the human-readable run log.
	EnableLogging bool `json:"enable_logging,omitempty" yaml:"enable_logging,omitempty"`
	// Planner selects the action planner (respond, intent).
	Planner string `json:"planner,omitempty" yaml:"planner,omitempty"`
	// DefaultGoal is used when no goal is given.
	DefaultGoal string `json:"default_goal,omitempty" yaml:"default_goal,omitempty"`
}

// HooksConfig configures the hook pipeline.
type HooksConfig struct {
	// GuardRails enables content safety, rate limiting and data privacy.
	GuardRails bool `json:"guard_rails,omitempty" yaml:"guard_rails,omitempty"`
	// HumanInLoop enables the human-approval flag hook.
	HumanInLoop bool `json:"human_in_loop,omitempty" yaml:"human_in_loop,omitempty"`
	// FailOpen lets pre-action hook errors pass.
	FailOpen bool `json:"fail_open,omitempty" yaml:"fail_open,omitempty"`

	ContentSafety ContentSafetyConfig `json:"content_safety,omitempty" yaml:"content_safety,omitempty"`
	RateLimit     RateLimitConfig     `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	HumanApproval HumanApprovalConfig `json:"human_approval,omitempty" yaml:"human_approval,omitempty"`
	Policy        PolicyConfig        `json:"policy,omitempty" yaml:"policy,omitempty"`
	Logging       LoggingHooksConfig  `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ContentSafetyConfig overrides the content safety denylist.
type ContentSafetyConfig struct {
	Targets  []string `json:"targets,omitempty" yaml:"targets,omitempty"`
	Fields   []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Denylist []string `json:"denylist,omitempty" yaml:"denylist,omitempty"`
}

// RateLimitConfig configures the windowed rate limit.
type RateLimitConfig struct {
	// Limit is the number of actions allowed per window and key.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
	// Window is the counting window.
	Window Duration `json:"window,omitempty" yaml:"window,omitempty"`
	// Scope is shared (process-wide) or isolated (per engine).
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`
	// Namespace prefixes counter keys, e.g. a tenant ID.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	// Targets limits counting to these tool targets (empty = send_email).
	Targets []string `json:"targets,omitempty" yaml:"targets,omitempty"`
	// Rate and Burst enable a token bucket on every tool call when Rate > 0.
	Rate  int `json:"rate,omitempty" yaml:"rate,omitempty"`
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty"`
	// Redis keeps the windows in Redis so every process shares them.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisConfig locates a Redis server.
type RedisConfig struct {
	// Address is host:port; empty disables Redis.
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// HumanApprovalConfig lists the actions flagged for approval.
type HumanApprovalConfig struct {
	CriticalActions []string `json:"critical_actions,omitempty" yaml:"critical_actions,omitempty"`
}

// PolicyConfig configures the rego policy guard rail.
type PolicyConfig struct {
	// File is a path to a rego module.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	// Inline is rego source.
	Inline string `json:"inline,omitempty" yaml:"inline,omitempty"`
}

// Enabled returns true if a policy source is configured.
func (p PolicyConfig) Enabled() bool {
	return p.File != "" || p.Inline != ""
}

// LoggingHooksConfig toggles the logging hooks.
type LoggingHooksConfig struct {
	ActionLog   bool        `json:"action_log,omitempty" yaml:"action_log,omitempty"`
	Performance bool        `json:"performance,omitempty" yaml:"performance,omitempty"`
	Audit       AuditConfig `json:"audit,omitempty" yaml:"audit,omitempty"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	MaxEntries int    `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
}

// ToolsConfig selects builtin capabilities.
type ToolsConfig struct {
	// Builtin lists builtin tool names to enable (empty = none).
	Builtin []string `json:"builtin,omitempty" yaml:"builtin,omitempty"`
	// Root confines file tools to a directory.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`
}

// ResilienceConfig wraps provider and capability calls.
type ResilienceConfig struct {
	// Timeout bounds each external call.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Retry configures provider retries.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures the capability circuit breaker.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
	// MaxConcurrent bounds concurrent capability calls across runs.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum attempts (1 disables retry).
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Threshold is consecutive failures before opening (0 disables).
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
