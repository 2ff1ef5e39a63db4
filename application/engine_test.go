package application

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/planner"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/resilience"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/memory"
)

// Test helpers

const learnReply = `{"success": true, "insights": ["ok"], "adjustments": []}`

func newTestRegistry(t *testing.T, tools ...capability.Tool) *memory.Registry {
	t.Helper()
	r := memory.NewRegistry()
	for _, tool := range tools {
		if err := r.RegisterTool(tool); err != nil {
			t.Fatalf("RegisterTool: %v", err)
		}
	}
	return r
}

func countingTool(name string, calls *atomic.Int32) capability.Tool {
	return capability.NewTool(name).
		WithDescription("Test tool: " + name).
		WithHandler(func(_ context.Context, params map[string]any) (any, error) {
			calls.Add(1)
			return map[string]any{"echo": params["text"]}, nil
		}).
		MustBuild()
}

func failingTool(name string, err error) capability.Tool {
	return capability.NewTool(name).
		WithHandler(func(context.Context, map[string]any) (any, error) {
			return nil, err
		}).
		MustBuild()
}

// forceTool always plans a tool_use of target.
func forceTool(target string) planner.ActionPlanner {
	return planner.PlannerFunc(func(context.Context, agent.Thought, *agent.RunState) (agent.Action, error) {
		return agent.Action{Kind: agent.ActionToolUse, Target: target, Parameters: map[string]any{"text": "hi"}}, nil
	})
}

// echoParams returns its parameters unchanged.
func echoParams(calls *atomic.Int32) capability.Tool {
	return capability.NewTool("echo").
		WithHandler(func(_ context.Context, params map[string]any) (any, error) {
			calls.Add(1)
			return params, nil
		}).
		MustBuild()
}

// looping answers every call without ever reaching the goal.
func looping() *planner.ScriptedProvider {
	return planner.NewScriptedProvider().OnExhausted(func(planner.CompletionRequest) (string, error) {
		return "still working", nil
	})
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngineWithOptions(opts...)
	if err != nil {
		t.Fatalf("NewEngineWithOptions: %v", err)
	}
	return e
}

// Engine Creation Tests

func TestNewEngine_RequiresProvider(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(EngineConfig{Registry: memory.NewRegistry()})
	if !errors.Is(err, agent.ErrNoProvider) {
		t.Errorf("err = %v, want ErrNoProvider", err)
	}
}

func TestNewEngine_RequiresRegistry(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(EngineConfig{Provider: planner.NewScriptedProvider()})
	if !errors.Is(err, agent.ErrNoRegistry) {
		t.Errorf("err = %v, want ErrNoRegistry", err)
	}
}

func TestNewEngine_RejectsInvalidHook(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(EngineConfig{
		Provider: planner.NewScriptedProvider(),
		Registry: memory.NewRegistry(),
		Hooks:    []hook.Hook{{Name: "", Type: hook.TypeLogging}},
	})
	if !errors.Is(err, hook.ErrEmptyName) {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}
}

func TestNewEngine_SetsDefaults(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, WithProvider(planner.NewScriptedProvider()), WithRegistry(memory.NewRegistry()))

	if e.maxIterations != DefaultMaxIterations {
		t.Errorf("maxIterations = %d, want %d", e.maxIterations, DefaultMaxIterations)
	}
	if e.memoryCapacity != 100 {
		t.Errorf("memoryCapacity = %d, want 100", e.memoryCapacity)
	}
	if e.executor == nil || e.dispatcher == nil || e.metrics == nil || e.tracer == nil {
		t.Error("expected executor, dispatcher, metrics and tracer defaults")
	}
	if _, ok := e.actions.(planner.RespondPlanner); !ok {
		t.Errorf("actions = %T, want RespondPlanner", e.actions)
	}
}

func TestRun_EmptyGoal(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, WithProvider(looping()), WithRegistry(memory.NewRegistry()))
	if _, err := e.Run(context.Background(), "  ", nil); !errors.Is(err, agent.ErrEmptyGoal) {
		t.Errorf("err = %v, want ErrEmptyGoal", err)
	}
}

// Run Lifecycle Tests

func TestRun_SayHello(t *testing.T) {
	t.Parallel()

	provider := planner.NewScriptedProvider(
		"Say hello to the user",
		`{"success": true, "insights": ["greeted"], "adjustments": [], "newKnowledge": {"result": "hello"}}`,
		"The user has been greeted. GOAL_ACHIEVED",
	)
	e := newTestEngine(t, WithProvider(provider), WithRegistry(memory.NewRegistry()))

	result, err := e.Run(context.Background(), "say hello", map[string]any{"user": "ada"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Success {
		t.Error("Success should always be true")
	}
	if result.StopReason != agent.StopGoalAchieved {
		t.Errorf("StopReason = %s, want goal_achieved", result.StopReason)
	}
	if result.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", result.Iterations)
	}
	if result.Result != "hello" {
		t.Errorf("Result = %v, want hello", result.Result)
	}
	if len(result.Memory) != 1 {
		t.Fatalf("Memory = %d records, want 1", len(result.Memory))
	}

	rec := result.Memory[0]
	if rec.Phase != "learn" || !strings.Contains(rec.Content, "greeted") {
		t.Errorf("record = %+v", rec)
	}
	if rec.Metadata["action_kind"] != "respond" || rec.Metadata["action_target"] != "user" || rec.Metadata["iteration"] != 1 {
		t.Errorf("metadata = %v", rec.Metadata)
	}

	reqs := provider.Requests()
	if len(reqs) != 3 {
		t.Fatalf("provider calls = %d, want 3", len(reqs))
	}
	if reqs[0].MaxTokens != ThinkMaxTokens || reqs[1].MaxTokens != LearnMaxTokens {
		t.Errorf("max tokens = %d/%d", reqs[0].MaxTokens, reqs[1].MaxTokens)
	}
	if !strings.Contains(reqs[0].System, "say hello") {
		t.Error("system preamble should name the goal")
	}
	if !strings.Contains(reqs[0].Messages[0].Content, `"user": "ada"`) {
		t.Errorf("think prompt should carry the context: %s", reqs[0].Messages[0].Content)
	}
}

func TestRun_EchoTool(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	provider := planner.NewScriptedProvider(
		`{"reasoning": "echo it", "action": {"kind": "tool_use", "target": "echo", "parameters": {"text": "hi"}}}`,
		`{"success": true, "insights": ["echoed"], "adjustments": [], "newKnowledge": {"echoed": true}}`,
		"GOAL_ACHIEVED",
	)
	e := newTestEngine(t,
		WithProvider(provider),
		WithRegistry(newTestRegistry(t, countingTool("echo", &calls))),
		WithActionPlanner(planner.NewIntentPlanner()),
	)

	result, err := e.Run(context.Background(), "echo hi", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("echo calls = %d, want 1", calls.Load())
	}
	ctx, ok := result.Result.(map[string]any)
	if !ok || ctx["echoed"] != true {
		t.Errorf("Result = %v, want context with echoed", result.Result)
	}
	if !strings.Contains(provider.Requests()[1].Messages[0].Content, `"echo":"hi"`) {
		t.Error("learn prompt should carry the tool result")
	}
}

func TestRun_IterationBound(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		WithProvider(looping()),
		WithRegistry(memory.NewRegistry()),
		WithMaxIterations(3),
	)

	result, err := e.Run(context.Background(), "never done", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != 3 || result.StopReason != agent.StopMaxIterations {
		t.Errorf("got %d iterations, %s", result.Iterations, result.StopReason)
	}
	if len(result.Memory) != 3 {
		t.Errorf("Memory = %d, want 3", len(result.Memory))
	}
}

func TestRun_MemoryCap(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		WithProvider(looping()),
		WithRegistry(memory.NewRegistry()),
		WithMaxIterations(5),
		WithMemoryCapacity(2),
	)

	result, err := e.Run(context.Background(), "fill memory", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Memory) != 2 {
		t.Fatalf("Memory = %d, want 2", len(result.Memory))
	}
	if result.Memory[0].Metadata["iteration"] != 4 || result.Memory[1].Metadata["iteration"] != 5 {
		t.Errorf("kept iterations %v and %v, want 4 and 5", result.Memory[0].Metadata["iteration"], result.Memory[1].Metadata["iteration"])
	}
}

func TestRun_VetoSkipsDispatchAndLearn(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var later []string
	provider := looping()
	e := newTestEngine(t,
		WithProvider(provider),
		WithRegistry(newTestRegistry(t, countingTool("send_email", &calls))),
		WithActionPlanner(forceTool("send_email")),
		WithMaxIterations(3),
		WithHooks(
			hook.New("deny", hook.TypeGuardRail, func(context.Context, *hook.Context) (hook.Result, error) {
				return hook.Block("no email"), nil
			}),
			hook.New("after", hook.TypePreAction, func(context.Context, *hook.Context) (hook.Result, error) {
				later = append(later, "after")
				return hook.Allow(), nil
			}),
		),
	)

	result, err := e.Run(context.Background(), "email everyone", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("vetoed tool invoked %d times", calls.Load())
	}
	if len(later) != 0 {
		t.Error("hooks after a veto must not run")
	}
	if len(result.Memory) != 0 {
		t.Errorf("Memory = %d, want 0", len(result.Memory))
	}
	if n := len(provider.Requests()); n != 3 {
		t.Errorf("provider calls = %d, want 3 (think only)", n)
	}
	if result.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", result.Iterations)
	}
}

func TestRun_ModifiedAction(t *testing.T) {
	t.Parallel()

	var echo, other atomic.Int32
	e := newTestEngine(t,
		WithProvider(planner.NewScriptedProvider("act", learnReply, "GOAL_ACHIEVED")),
		WithRegistry(newTestRegistry(t, countingTool("echo", &echo), countingTool("other", &other))),
		WithActionPlanner(forceTool("other")),
		WithHooks(hook.New("rewrite", hook.TypePreAction, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
			a := *hc.Action
			a.Target = "echo"
			return hook.Result{Allowed: true, Modified: a}, nil
		})),
	)

	if _, err := e.Run(context.Background(), "rewrite", nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if echo.Load() != 1 || other.Load() != 0 {
		t.Errorf("echo=%d other=%d, want the replacement dispatched", echo.Load(), other.Load())
	}
}

func TestRun_DispatchMissContinues(t *testing.T) {
	t.Parallel()

	var seen []error
	e := newTestEngine(t,
		WithProvider(looping()),
		WithRegistry(memory.NewRegistry()),
		WithActionPlanner(forceTool("missing")),
		WithMaxIterations(2),
		WithHooks(hook.New("errors", hook.TypeError, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
			seen = append(seen, hc.Err)
			return hook.Allow(), nil
		})),
	)

	result, err := e.Run(context.Background(), "use a missing tool", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != 2 || result.StopReason != agent.StopMaxIterations {
		t.Errorf("got %d iterations, %s", result.Iterations, result.StopReason)
	}
	if len(seen) != 2 {
		t.Fatalf("error hook calls = %d, want 2", len(seen))
	}
	if !errors.Is(seen[0], capability.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", seen[0])
	}
}

func TestRun_CriticalErrorStops(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		WithProvider(looping()),
		WithRegistry(newTestRegistry(t, failingTool("explode", agent.Critical(errors.New("disk on fire"))))),
		WithActionPlanner(forceTool("explode")),
		WithMaxIterations(5),
	)

	result, err := e.Run(context.Background(), "explode", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != 1 || result.StopReason != agent.StopCritical {
		t.Errorf("got %d iterations, %s", result.Iterations, result.StopReason)
	}
	if !strings.Contains(result.Error, "disk on fire") {
		t.Errorf("Error = %q", result.Error)
	}
	if !result.Success {
		t.Error("Success should stay true")
	}
}

func TestRun_CallTimeoutIsNotCritical(t *testing.T) {
	t.Parallel()

	slow := capability.NewTool("slow").
		WithHandler(func(ctx context.Context, _ map[string]any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).
		MustBuild()

	var seen []error
	e := newTestEngine(t,
		WithProvider(looping()),
		WithRegistry(newTestRegistry(t, slow)),
		WithActionPlanner(forceTool("slow")),
		WithCallTimeout(20*time.Millisecond),
		WithMaxIterations(2),
		WithHooks(hook.New("errors", hook.TypeError, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
			seen = append(seen, hc.Err)
			return hook.Allow(), nil
		})),
	)

	result, err := e.Run(context.Background(), "wait", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", result.Iterations)
	}
	if len(seen) != 2 || !errors.Is(seen[0], agent.ErrCallTimeout) {
		t.Errorf("errors = %v, want ErrCallTimeout", seen)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t, WithProvider(looping()), WithRegistry(memory.NewRegistry()))
	result, err := e.Run(ctx, "never", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want Canceled", err)
	}
	if result == nil || result.Iterations != 0 || result.StopReason != agent.StopCancelled {
		t.Errorf("result = %+v", result)
	}
}

func TestRun_CancelledMidRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := planner.ProviderFunc(func(context.Context, planner.CompletionRequest) (string, error) {
		cancel()
		return "working", nil
	})
	e := newTestEngine(t, WithProvider(provider), WithRegistry(memory.NewRegistry()), WithMaxIterations(5))

	result, err := e.Run(ctx, "stop me", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want Canceled", err)
	}
	if result.StopReason != agent.StopCancelled {
		t.Errorf("StopReason = %s", result.StopReason)
	}
	if result.Iterations >= 5 {
		t.Errorf("Iterations = %d, want the loop to stop early", result.Iterations)
	}
}

func TestRun_ProviderErrorContinues(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	provider := planner.ProviderFunc(func(context.Context, planner.CompletionRequest) (string, error) {
		if n.Add(1) == 1 {
			return "", errors.New("overloaded")
		}
		return "GOAL_ACHIEVED", nil
	})
	e := newTestEngine(t,
		WithProvider(provider),
		WithRegistry(memory.NewRegistry()),
		WithExecutor(resilience.New()),
	)

	result, err := e.Run(context.Background(), "retry later", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != 2 || result.StopReason != agent.StopGoalAchieved {
		t.Errorf("got %d iterations, %s", result.Iterations, result.StopReason)
	}
}

func TestRun_UnparseableLearningUsesDefault(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		WithProvider(planner.NewScriptedProvider("act", "no json here", "GOAL_ACHIEVED")),
		WithRegistry(memory.NewRegistry()),
	)

	result, err := e.Run(context.Background(), "reflect", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Memory) != 1 || !strings.Contains(result.Memory[0].Content, "Action completed") {
		t.Errorf("memory = %+v", result.Memory)
	}
}

func TestRun_Log(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newEngine := func(enabled bool) *Engine {
		return newTestEngine(t,
			WithProvider(planner.NewScriptedProvider("GOAL_ACHIEVED")),
			WithRegistry(memory.NewRegistry()),
			WithLogging(enabled),
			WithClock(func() time.Time { return fixed }),
		)
	}

	result, err := newEngine(true).Run(context.Background(), "log it", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Log) == 0 {
		t.Fatal("expected log entries")
	}
	if result.Log[0] != "[2024-01-01T00:00:00Z] Starting agent with goal: log it" {
		t.Errorf("Log[0] = %q", result.Log[0])
	}

	result, err = newEngine(false).Run(context.Background(), "log it", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Log) != 0 {
		t.Errorf("Log = %v, want empty when disabled", result.Log)
	}
}

func TestRun_ApprovalIsAdvisory(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	e := newTestEngine(t,
		WithProvider(planner.NewScriptedProvider("act", learnReply, "GOAL_ACHIEVED")),
		WithRegistry(newTestRegistry(t, countingTool("write_file", &calls))),
		WithActionPlanner(forceTool("write_file")),
		WithLogging(true),
		WithHooks(hook.New("approve", hook.TypeHumanInLoop, func(context.Context, *hook.Context) (hook.Result, error) {
			return hook.Result{Allowed: true, RequireHumanApproval: true}, nil
		})),
	)

	result, err := e.Run(context.Background(), "write", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want the flagged action to run", calls.Load())
	}
	found := false
	for _, line := range result.Log {
		if strings.Contains(line, "Human approval required for write_file") {
			found = true
		}
	}
	if !found {
		t.Errorf("log should mention the approval flag: %v", result.Log)
	}
}

func TestRun_PhasesSeenByHooks(t *testing.T) {
	t.Parallel()

	var phases []agent.Phase
	record := func(_ context.Context, hc *hook.Context) (hook.Result, error) {
		phases = append(phases, hc.Phase)
		return hook.Allow(), nil
	}
	e := newTestEngine(t,
		WithProvider(planner.NewScriptedProvider("act", learnReply, "GOAL_ACHIEVED")),
		WithRegistry(memory.NewRegistry()),
		WithHooks(hook.New("phases", hook.TypeLogging, record)),
	)

	if _, err := e.Run(context.Background(), "phases", nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(phases) != 2 || phases[0] != agent.PhaseAct || phases[1] != agent.PhaseAct {
		t.Errorf("phases = %v, want [act act]", phases)
	}
}

func TestRun_GoalAchievedOnFirstThought(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	provider := planner.NewScriptedProvider("Said hello to the user. GOAL_ACHIEVED")
	e := newTestEngine(t,
		WithProvider(provider),
		WithRegistry(newTestRegistry(t, countingTool("echo", &calls))),
		WithMaxIterations(1),
	)

	result, err := e.Run(context.Background(), "Say hello", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != 1 || result.StopReason != agent.StopGoalAchieved {
		t.Errorf("got %d iterations, %s", result.Iterations, result.StopReason)
	}
	if calls.Load() != 0 {
		t.Errorf("dispatches = %d, want 0", calls.Load())
	}
	if len(result.Memory) != 0 {
		t.Errorf("Memory = %d, want 0", len(result.Memory))
	}
	if n := len(provider.Requests()); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestRun_EchoReturnsParameters(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	provider := planner.NewScriptedProvider("echo x", learnReply)
	e := newTestEngine(t,
		WithProvider(provider),
		WithRegistry(newTestRegistry(t, echoParams(&calls))),
		WithActionPlanner(planner.PlannerFunc(func(context.Context, agent.Thought, *agent.RunState) (agent.Action, error) {
			return agent.Action{Kind: agent.ActionToolUse, Target: "echo", Parameters: map[string]any{"x": 1}}, nil
		})),
		WithMaxIterations(1),
	)

	result, err := e.Run(context.Background(), "echo", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("dispatches = %d, want 1", calls.Load())
	}
	if len(result.Memory) != 1 {
		t.Errorf("Memory = %d, want 1", len(result.Memory))
	}
	reqs := provider.Requests()
	if len(reqs) != 2 {
		t.Fatalf("provider calls = %d, want 2", len(reqs))
	}
	if !strings.Contains(reqs[1].Messages[0].Content, `The result was: {"x":1}`) {
		t.Errorf("learn prompt should carry the echoed parameters: %s", reqs[1].Messages[0].Content)
	}
}

func TestRun_EmptyReplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		replies []string
		insight string
	}{
		{"empty learning uses default", []string{"working on it", ""}, "Action completed"},
		{"empty thought continues", []string{"", learnReply}, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			var seen []error
			e := newTestEngine(t,
				WithProvider(planner.NewScriptedProvider(tt.replies...)),
				WithRegistry(newTestRegistry(t, countingTool("echo", &calls))),
				WithActionPlanner(forceTool("echo")),
				WithMaxIterations(1),
				WithHooks(hook.New("errors", hook.TypeError, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
					seen = append(seen, hc.Err)
					return hook.Allow(), nil
				})),
			)

			result, err := e.Run(context.Background(), "echo", nil)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if calls.Load() != 1 {
				t.Errorf("dispatches = %d, want 1", calls.Load())
			}
			if len(seen) != 0 {
				t.Errorf("errors = %v, want none", seen)
			}
			if len(result.Memory) != 1 || !strings.Contains(result.Memory[0].Content, tt.insight) {
				t.Errorf("memory = %+v, want a record with %q", result.Memory, tt.insight)
			}
		})
	}
}

func TestRun_UnencodableContextStillActs(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var seen []error
	provider := looping()
	e := newTestEngine(t,
		WithProvider(provider),
		WithRegistry(newTestRegistry(t, countingTool("echo", &calls))),
		WithActionPlanner(forceTool("echo")),
		WithMaxIterations(3),
		WithHooks(hook.New("errors", hook.TypeError, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
			seen = append(seen, hc.Err)
			return hook.Allow(), nil
		})),
	)

	result, err := e.Run(context.Background(), "g", map[string]any{"score": math.NaN()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("dispatches = %d, want 3", calls.Load())
	}
	if len(seen) != 0 {
		t.Errorf("errors = %v, want none", seen)
	}
	if result.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", result.Iterations)
	}
	if !strings.Contains(provider.Requests()[0].Messages[0].Content, `"score": null`) {
		t.Error("think prompt should render the unencodable value as null")
	}
}

func TestRun_PanickingToolIsNotCritical(t *testing.T) {
	t.Parallel()

	explode := capability.NewTool("explode").
		WithHandler(func(context.Context, map[string]any) (any, error) {
			panic("index out of range")
		}).
		MustBuild()

	var seen []error
	e := newTestEngine(t,
		WithProvider(looping()),
		WithRegistry(newTestRegistry(t, explode)),
		WithActionPlanner(forceTool("explode")),
		WithMaxIterations(2),
		WithHooks(hook.New("errors", hook.TypeError, func(_ context.Context, hc *hook.Context) (hook.Result, error) {
			seen = append(seen, hc.Err)
			return hook.Allow(), nil
		})),
	)

	result, err := e.Run(context.Background(), "explode", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != 2 || result.StopReason != agent.StopMaxIterations {
		t.Errorf("got %d iterations, %s", result.Iterations, result.StopReason)
	}
	if len(seen) != 2 || !errors.Is(seen[0], resilience.ErrPanicked) {
		t.Errorf("errors = %v, want ErrPanicked", seen)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"héllo wörld", 2, "hé..."},
		{"日本語テキスト", 3, "日本語..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRun_ObservationUsesClock(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := planner.NewScriptedProvider("GOAL_ACHIEVED")
	e := newTestEngine(t,
		WithProvider(provider),
		WithRegistry(memory.NewRegistry()),
		WithClock(func() time.Time { return fixed }),
	)

	if _, err := e.Run(context.Background(), "clock", nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(provider.Requests()[0].Messages[0].Content, `"timestamp": "2024-01-01T00:00:00Z"`) {
		t.Error("observation should be stamped with the engine clock")
	}
}
