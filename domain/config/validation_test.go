package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *AgentConfig {
	return &AgentConfig{
		Name:    "test-agent",
		Version: "1.0.0",
		Provider: ProviderConfig{
			Type:    "scripted",
			Replies: []string{"GOAL_ACHIEVED"},
		},
	}
}

func TestValidator_ValidateMinimal(t *testing.T) {
	v := NewValidator()
	if errs := v.Validate(validConfig()); errs.HasErrors() {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestValidator_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *AgentConfig)
		wantPath string
	}{
		{"missing name", func(c *AgentConfig) { c.Name = "" }, "name"},
		{"missing version", func(c *AgentConfig) { c.Version = "" }, "version"},
		{"missing provider", func(c *AgentConfig) { c.Provider = ProviderConfig{} }, "provider.type"},
		{"unknown provider", func(c *AgentConfig) { c.Provider.Type = "oracle" }, "provider.type"},
		{"scripted without replies", func(c *AgentConfig) { c.Provider.Replies = nil }, "provider.replies"},
		{"remote without key", func(c *AgentConfig) { c.Provider = ProviderConfig{Type: "anthropic"} }, "provider.api_key"},
		{"negative iterations", func(c *AgentConfig) { c.Agent.MaxIterations = -1 }, "agent.max_iterations"},
		{"unknown planner", func(c *AgentConfig) { c.Agent.Planner = "psychic" }, "agent.planner"},
		{"bad scope", func(c *AgentConfig) { c.Hooks.RateLimit.Scope = "galactic" }, "hooks.rate_limit.scope"},
		{"negative window", func(c *AgentConfig) { c.Hooks.RateLimit.Window = Duration(-time.Second) }, "hooks.rate_limit.window"},
		{"isolated redis", func(c *AgentConfig) {
			c.Hooks.RateLimit.Scope = "isolated"
			c.Hooks.RateLimit.Redis.Address = "localhost:6379"
		}, "hooks.rate_limit.redis"},
		{"two policy sources", func(c *AgentConfig) {
			c.Hooks.Policy = PolicyConfig{File: "p.rego", Inline: "package x"}
		}, "hooks.policy"},
		{"negative timeout", func(c *AgentConfig) { c.Resilience.Timeout = Duration(-time.Second) }, "resilience.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			errs := NewValidator().Validate(c)
			found := false
			for _, e := range errs {
				if e.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error at %s, got: %v", tt.wantPath, errs)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Path: "name", Message: "name is required"},
		{Path: "version", Message: "version is required"},
	}
	msg := errs.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("Error() = %q, want count prefix", msg)
	}
	if ValidationErrors(nil).Error() != "no validation errors" {
		t.Error("empty ValidationErrors message mismatch")
	}
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte(`"90s"`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if d.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", d.Duration())
	}
	out, _ := d.MarshalJSON()
	if string(out) != `"1m30s"` {
		t.Errorf("MarshalJSON() = %s, want \"1m30s\"", out)
	}
}

func TestPolicyConfig_Enabled(t *testing.T) {
	if (PolicyConfig{}).Enabled() {
		t.Error("empty policy reported enabled")
	}
	if !(PolicyConfig{Inline: "package agent_policy"}).Enabled() {
		t.Error("inline policy reported disabled")
	}
}
