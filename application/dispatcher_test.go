package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/memory"
)

func newDispatchState() *agent.RunState {
	return agent.NewRunState("run-1", "dispatch", map[string]any{
		"user":    "ada",
		"profile": map[string]any{"tags": []any{"a", "b"}},
		"secret":  "s3cret",
	}, 0)
}

func TestDispatch_Respond(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(memory.NewRegistry(), nil)
	params := map[string]any{"message": "hello"}

	got, err := d.Dispatch(context.Background(), agent.Action{Kind: agent.ActionRespond, Target: "user", Parameters: params}, newDispatchState())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok || m["message"] != "hello" {
		t.Errorf("got %v, want the parameters", got)
	}
}

func TestDispatch_Misses(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(memory.NewRegistry(), nil)

	tests := []struct {
		name string
		kind agent.ActionKind
		want error
	}{
		{"tool", agent.ActionToolUse, capability.ErrNotFound},
		{"skill", agent.ActionSkillInvoke, capability.ErrNotFound},
		{"subworker", agent.ActionSubagentSpawn, capability.ErrNotFound},
		{"unknown kind", agent.ActionKind("teleport"), agent.ErrUnknownActionKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := d.Dispatch(context.Background(), agent.Action{Kind: tt.kind, Target: "nope"}, newDispatchState())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if agent.IsCritical(err) {
				t.Error("misses must not be critical")
			}
		})
	}
}

func TestDispatch_KindMismatchNeverInvokesTool(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r := memory.NewRegistry()
	echo := capability.NewTool("echo").
		WithHandler(func(context.Context, map[string]any) (any, error) {
			calls.Add(1)
			return "echoed", nil
		}).
		MustBuild()
	if err := r.RegisterTool(echo); err != nil {
		t.Fatalf("RegisterTool: %v", err)
	}
	d := NewDispatcher(r, nil)

	for _, kind := range []agent.ActionKind{agent.ActionSkillInvoke, agent.ActionSubagentSpawn} {
		_, err := d.Dispatch(context.Background(), agent.Action{Kind: kind, Target: "echo"}, newDispatchState())
		if !errors.Is(err, capability.ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", kind, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("echo invoked %d times, want 0", calls.Load())
	}
}

func TestDispatch_ToolSchema(t *testing.T) {
	t.Parallel()

	r := memory.NewRegistry()
	tool := capability.NewTool("greet").
		WithSchema(capability.NewSchema().Field("name", capability.Required(), capability.TypeOf("string"))).
		WithHandler(func(_ context.Context, params map[string]any) (any, error) {
			return "hello " + params["name"].(string), nil
		}).
		MustBuild()
	if err := r.RegisterTool(tool); err != nil {
		t.Fatalf("RegisterTool: %v", err)
	}
	d := NewDispatcher(r, nil)

	got, err := d.Dispatch(context.Background(), agent.Action{Kind: agent.ActionToolUse, Target: "greet", Parameters: map[string]any{"name": "ada"}}, newDispatchState())
	if err != nil || got != "hello ada" {
		t.Fatalf("got %v, %v", got, err)
	}

	_, err = d.Dispatch(context.Background(), agent.Action{Kind: agent.ActionToolUse, Target: "greet"}, newDispatchState())
	if !errors.Is(err, capability.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDispatch_SkillSeesState(t *testing.T) {
	t.Parallel()

	r := memory.NewRegistry()
	skill := capability.NewSkill("whoami").
		WithHandler(func(_ context.Context, state *agent.RunState) (any, error) {
			return state.Context["user"], nil
		}).
		MustBuild()
	if err := r.RegisterSkill(skill); err != nil {
		t.Fatalf("RegisterSkill: %v", err)
	}

	got, err := NewDispatcher(r, nil).Dispatch(context.Background(), agent.Action{Kind: agent.ActionSkillInvoke, Target: "whoami"}, newDispatchState())
	if err != nil || got != "ada" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestDispatch_SubworkerContextCopy(t *testing.T) {
	t.Parallel()

	var seen map[string]any
	var task string
	newWorker := func(name string, isolated bool) capability.Subworker {
		return capability.NewSubworker(name).
			WithIsolation(isolated).
			WithHandler(func(_ context.Context, tk string, shared map[string]any) (any, error) {
				task, seen = tk, shared
				shared["user"] = "mallory"
				if p, ok := shared["profile"].(map[string]any); ok {
					p["tags"].([]any)[0] = "changed"
				}
				return "done", nil
			}).
			MustBuild()
	}

	r := memory.NewRegistry()
	if err := r.RegisterSubworker(newWorker("open", false)); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterSubworker(newWorker("sealed", true)); err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(r, nil)

	t.Run("non-isolated gets a deep copy", func(t *testing.T) {
		state := newDispatchState()
		_, err := d.Dispatch(context.Background(), agent.Action{
			Kind:       agent.ActionSubagentSpawn,
			Target:     "open",
			Parameters: map[string]any{"task": "summarize", "context": map[string]any{"extra": 1}},
		}, state)
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if task != "summarize" || seen["extra"] != 1 || seen["secret"] != "s3cret" {
			t.Errorf("task=%q context=%v", task, seen)
		}
		if state.Context["user"] != "ada" {
			t.Error("worker wrote through to the run context")
		}
		tags := state.Context["profile"].(map[string]any)["tags"].([]any)
		if tags[0] != "a" {
			t.Error("worker mutated nested run context")
		}
	})

	t.Run("isolated sees only named keys", func(t *testing.T) {
		state := newDispatchState()
		_, err := d.Dispatch(context.Background(), agent.Action{
			Kind:       agent.ActionSubagentSpawn,
			Target:     "sealed",
			Parameters: map[string]any{"task": "review", "context_keys": []any{"profile", "missing"}},
		}, state)
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if _, ok := seen["secret"]; ok {
			t.Error("isolated worker saw an unnamed field")
		}
		if _, ok := seen["profile"]; !ok {
			t.Error("isolated worker should see named fields")
		}
		tags := state.Context["profile"].(map[string]any)["tags"].([]any)
		if tags[0] != "a" {
			t.Error("worker mutated nested run context")
		}
	})
}
