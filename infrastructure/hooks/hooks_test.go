package hooks_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/hooks"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/security/audit"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/memory"
)

func toolContext(target string, params map[string]any) *hook.Context {
	state := agent.NewRunState("run-1", "reach out", nil, 0)
	state.Iteration = 1
	return &hook.Context{
		RunID:  "run-1",
		Stage:  hook.StagePreAction,
		Phase:  agent.PhaseAct,
		State:  state,
		Action: &agent.Action{Kind: agent.ActionToolUse, Target: target, Parameters: params},
	}
}

func eval(t *testing.T, h hook.Hook, hc *hook.Context) hook.Result {
	t.Helper()
	res, err := h.Handler(context.Background(), hc)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return res
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestContentSafety(t *testing.T) {
	t.Parallel()

	h := hooks.ContentSafety(hooks.ContentSafetyConfig{})

	tests := []struct {
		name     string
		target   string
		params   map[string]any
		allowed  bool
		approval bool
	}{
		{"clean email", "send_email", map[string]any{"subject": "Hi", "body": "See you tomorrow"}, true, false},
		{"spam subject", "send_email", map[string]any{"subject": "GUARANTEED returns", "body": "ok"}, false, true},
		{"denylist phrase in body", "send_email", map[string]any{"subject": "Hi", "body": "Click here now!"}, false, true},
		{"other target ignored", "echo", map[string]any{"body": "spam spam"}, true, false},
		{"non-string fields ignored", "send_email", map[string]any{"body": 42}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := eval(t, h, toolContext(tt.target, tt.params))
			if res.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v", res.Allowed, tt.allowed)
			}
			if res.RequireHumanApproval != tt.approval {
				t.Errorf("RequireHumanApproval = %v, want %v", res.RequireHumanApproval, tt.approval)
			}
		})
	}
}

func TestContentSafety_SkipsNonToolActions(t *testing.T) {
	t.Parallel()

	hc := toolContext("send_email", map[string]any{"body": "spam"})
	hc.Action.Kind = agent.ActionRespond
	if res := eval(t, hooks.ContentSafety(hooks.ContentSafetyConfig{}), hc); !res.Allowed {
		t.Error("respond action should not be inspected")
	}
}

func TestRateLimit_Boundary(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	h := hooks.RateLimit(hooks.RateLimitConfig{Now: clock.Now})

	for i := 1; i <= 10; i++ {
		if res := eval(t, h, toolContext("send_email", nil)); !res.Allowed {
			t.Fatalf("call %d blocked, want allowed", i)
		}
	}

	res := eval(t, h, toolContext("send_email", nil))
	if res.Allowed {
		t.Fatal("11th call allowed, want blocked")
	}
	if !strings.Contains(res.Message, "Rate limit exceeded") {
		t.Errorf("Message = %q", res.Message)
	}

	clock.now = clock.now.Add(time.Hour + time.Second)
	if res := eval(t, h, toolContext("send_email", nil)); !res.Allowed {
		t.Error("call after window reset blocked, want allowed")
	}
}

func TestRateLimit_OnlyCountsTargets(t *testing.T) {
	t.Parallel()

	h := hooks.RateLimit(hooks.RateLimitConfig{Limit: 1})
	for i := 0; i < 5; i++ {
		if res := eval(t, h, toolContext("echo", nil)); !res.Allowed {
			t.Fatalf("echo call %d blocked", i)
		}
	}
}

func TestRateLimit_SharedAndIsolatedStores(t *testing.T) {
	t.Parallel()

	shared := memory.NewCounterStore()
	a := hooks.RateLimit(hooks.RateLimitConfig{Limit: 1, Counters: shared})
	b := hooks.RateLimit(hooks.RateLimitConfig{Limit: 1, Counters: shared})

	if res := eval(t, a, toolContext("send_email", nil)); !res.Allowed {
		t.Fatal("first call blocked")
	}
	if res := eval(t, b, toolContext("send_email", nil)); res.Allowed {
		t.Error("shared store should carry the budget across hooks")
	}

	isolated := hooks.RateLimit(hooks.RateLimitConfig{Limit: 1, Counters: shared, Namespace: "tenant-b"})
	if res := eval(t, isolated, toolContext("send_email", nil)); !res.Allowed {
		t.Error("namespaced key should have its own budget")
	}
}

func TestTokenBucket(t *testing.T) {
	t.Parallel()

	h := hooks.TokenBucket(hooks.TokenBucketConfig{Rate: 1, Burst: 1})

	if res := eval(t, h, toolContext("echo", nil)); !res.Allowed {
		t.Fatal("first call should pass")
	}
	if res := eval(t, h, toolContext("echo", nil)); res.Allowed {
		t.Error("immediate second call should be throttled")
	}
	if res := eval(t, h, toolContext("read_file", nil)); !res.Allowed {
		t.Error("other targets have their own bucket")
	}
}

func TestDataPrivacy(t *testing.T) {
	t.Parallel()

	h := hooks.DataPrivacy()

	tests := []struct {
		name    string
		params  map[string]any
		allowed bool
	}{
		{"clean", map[string]any{"text": "hello"}, true},
		{"ssn", map[string]any{"text": "ssn 123-45-6789"}, false},
		{"card number", map[string]any{"card": "4111111111111111"}, false},
		{"live key", map[string]any{"key": "sk_live_abc123"}, false},
		{"inline password", map[string]any{"note": "password: hunter2"}, false},
		{"nil parameters", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := eval(t, h, toolContext("echo", tt.params))
			if res.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v", res.Allowed, tt.allowed)
			}
			if !tt.allowed && !res.RequireHumanApproval {
				t.Error("blocked result should flag approval")
			}
		})
	}
}

func TestDataPrivacy_AppliesToEveryKind(t *testing.T) {
	t.Parallel()

	hc := toolContext("user", map[string]any{"message": "my ssn is 123-45-6789"})
	hc.Action.Kind = agent.ActionRespond
	if res := eval(t, hooks.DataPrivacy(), hc); res.Allowed {
		t.Error("respond action with an SSN should be blocked")
	}
}

func TestHumanApproval_Advisory(t *testing.T) {
	t.Parallel()

	h := hooks.HumanApproval(nil)

	res := eval(t, h, toolContext("write_file", nil))
	if !res.Allowed || !res.RequireHumanApproval {
		t.Errorf("write_file: got %+v, want allowed with approval", res)
	}
	if res.Message != "Human approval required for write_file" {
		t.Errorf("Message = %q", res.Message)
	}

	res = eval(t, h, toolContext("echo", nil))
	if !res.Allowed || res.RequireHumanApproval {
		t.Errorf("echo: got %+v, want plain allow", res)
	}
}

func TestPipeline_ApprovalDoesNotVeto(t *testing.T) {
	t.Parallel()

	p := hook.NewPipeline()
	if err := p.Use(hooks.HumanApproval(nil), hooks.ActionLogger()); err != nil {
		t.Fatalf("Use: %v", err)
	}

	out := p.RunStage(context.Background(), hook.StagePreAction, toolContext("send_email", nil))
	if !out.Allowed {
		t.Fatalf("outcome blocked: %+v", out)
	}
	if len(out.ApprovalRequired) != 1 || out.ApprovalRequired[0] != hooks.NameHumanApproval {
		t.Errorf("ApprovalRequired = %v", out.ApprovalRequired)
	}
	if len(out.Invoked) != 2 {
		t.Errorf("Invoked = %v, want both hooks", out.Invoked)
	}
}

func TestPerformance(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	timings := hooks.NewTimings()
	h := hooks.Performance(hooks.PerformanceConfig{Timings: timings, Now: clock.Now})

	hc := toolContext("echo", nil)
	eval(t, h, hc)
	clock.now = clock.now.Add(40 * time.Millisecond)
	hc.Stage = hook.StagePostAction
	eval(t, h, hc)

	hc.Stage = hook.StagePreAction
	eval(t, h, hc)
	clock.now = clock.now.Add(20 * time.Millisecond)
	hc.Stage = hook.StageError
	eval(t, h, hc)

	avg, n := timings.Average("tool_use_echo")
	if n != 2 {
		t.Fatalf("samples = %d, want 2", n)
	}
	if avg != 30*time.Millisecond {
		t.Errorf("average = %v, want 30ms", avg)
	}
}

func TestTimings_StopWithoutStart(t *testing.T) {
	t.Parallel()

	timings := hooks.NewTimings()
	if _, ok := timings.Stop("run-1", "key", time.Now()); ok {
		t.Error("Stop on unknown timer should report false")
	}
	if len(timings.Snapshot()) != 0 {
		t.Error("Snapshot should be empty")
	}
}

func TestTimings_VetoedStartIsReplaced(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	timings := hooks.NewTimings()

	// A veto leaves the first timer unstopped; the next action replaces it.
	timings.Start("run-1", "tool_use_send_email", start)
	timings.Start("run-1", "tool_use_echo", start.Add(time.Second))
	if n := timings.InFlight(); n != 1 {
		t.Fatalf("InFlight = %d, want 1", n)
	}
	if _, ok := timings.Stop("run-1", "tool_use_send_email", start.Add(2*time.Second)); ok {
		t.Error("stale timer should have been dropped")
	}
	d, ok := timings.Stop("run-1", "tool_use_echo", start.Add(3*time.Second))
	if !ok || d != 2*time.Second {
		t.Errorf("Stop = %v, %v, want 2s", d, ok)
	}
	if n := timings.InFlight(); n != 0 {
		t.Errorf("InFlight = %d, want 0", n)
	}
}

func TestTimings_InFlightIsCapped(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	timings := hooks.NewTimings()
	for i := 0; i <= hooks.MaxInFlightTimers; i++ {
		timings.Start(fmt.Sprintf("run-%d", i), "tool_use_echo", start.Add(time.Duration(i)*time.Second))
	}

	if n := timings.InFlight(); n != hooks.MaxInFlightTimers {
		t.Errorf("InFlight = %d, want %d", n, hooks.MaxInFlightTimers)
	}
	if _, ok := timings.Stop("run-0", "tool_use_echo", start); ok {
		t.Error("oldest timer should have been dropped")
	}
}

func TestTimings_SamplesAreCapped(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	timings := hooks.NewTimings()
	for i := 0; i < hooks.MaxTimingSamples+10; i++ {
		timings.Start("run-1", "tool_use_echo", start)
		timings.Stop("run-1", "tool_use_echo", start.Add(time.Duration(i)*time.Millisecond))
	}

	_, n := timings.Average("tool_use_echo")
	if n != hooks.MaxTimingSamples {
		t.Errorf("samples = %d, want %d", n, hooks.MaxTimingSamples)
	}
	if got := timings.Snapshot()["tool_use_echo"][0]; got != 10*time.Millisecond {
		t.Errorf("oldest kept sample = %v, want 10ms", got)
	}
}

func TestAuditTrail_RedactsAndRecords(t *testing.T) {
	t.Parallel()

	trail := audit.NewTrail()
	h := hooks.AuditTrail(trail)

	hc := toolContext("login", map[string]any{"user": "ada", "apiKey": "k-123"})
	eval(t, h, hc)
	hc.Stage = hook.StagePostAction
	hc.Result = map[string]any{"token": "t-1", "ok": true}
	eval(t, h, hc)

	entries := trail.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	first := entries[0]
	if first.Stage != string(hook.StagePreAction) || first.Iteration != 1 || first.Goal != "reach out" {
		t.Errorf("unexpected entry: %+v", first)
	}
	params, ok := first.Action.Parameters.(map[string]any)
	if !ok {
		t.Fatalf("parameters type = %T", first.Action.Parameters)
	}
	if params["apiKey"] != audit.Redacted || params["user"] != "ada" {
		t.Errorf("parameters = %v", params)
	}

	result, ok := entries[1].Result.(map[string]any)
	if !ok {
		t.Fatalf("result type = %T", entries[1].Result)
	}
	if result["token"] != audit.Redacted {
		t.Errorf("result token = %v, want redacted", result["token"])
	}
}

func TestSharedState(t *testing.T) {
	t.Parallel()

	if hooks.DefaultSharedState() != hooks.DefaultSharedState() {
		t.Error("DefaultSharedState should return the same instance")
	}
	a, b := hooks.NewSharedState(), hooks.NewSharedState()
	if a == b || a.Timings == b.Timings || a.Audit == b.Audit {
		t.Error("NewSharedState should return isolated instances")
	}
}
