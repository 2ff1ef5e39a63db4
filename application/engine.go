// Package application provides the orchestration loop of the agent runtime.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
	"github.com/dokkiitech/LinkDeck-sub000/domain/hook"
	"github.com/dokkiitech/LinkDeck-sub000/domain/memory"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/logging"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/planner"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/resilience"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/statemachine"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/telemetry"
)

// Loop defaults.
const (
	DefaultMaxIterations = 10
	RecentMemory         = 5
)

// Engine runs the observe, think, act, learn loop.
// An Engine holds no per-run state and may serve concurrent runs; the
// hooks' shared state is whatever the caller injected.
type Engine struct {
	provider       planner.Provider
	registry       capability.Registry
	actions        planner.ActionPlanner
	pipeline       *hook.Pipeline
	executor       *resilience.Executor
	dispatcher     *Dispatcher
	metrics        telemetry.Metrics
	tracer         trace.Tracer
	maxIterations  int
	memoryCapacity int
	enableLogging  bool
	now            func() time.Time
}

// EngineConfig contains configuration for the engine.
type EngineConfig struct {
	Provider       planner.Provider
	Registry       capability.Registry
	ActionPlanner  planner.ActionPlanner
	Hooks          []hook.Hook
	FailOpen       bool
	Executor       *resilience.Executor
	Metrics        telemetry.Metrics
	TracerProvider trace.TracerProvider
	MaxIterations  int
	MemoryCapacity int
	EnableLogging  bool
	Now            func() time.Time
}

// NewEngine creates a new engine with the given configuration.
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Provider == nil {
		return nil, agent.ErrNoProvider
	}
	if config.Registry == nil {
		return nil, agent.ErrNoRegistry
	}

	pipeline := hook.NewPipeline(hook.WithFailOpen(config.FailOpen))
	if err := pipeline.Use(config.Hooks...); err != nil {
		return nil, fmt.Errorf("failed to register hooks: %w", err)
	}

	e := &Engine{
		provider:       config.Provider,
		registry:       config.Registry,
		actions:        config.ActionPlanner,
		pipeline:       pipeline,
		executor:       config.Executor,
		metrics:        config.Metrics,
		tracer:         telemetry.Tracer(config.TracerProvider),
		maxIterations:  config.MaxIterations,
		memoryCapacity: config.MemoryCapacity,
		enableLogging:  config.EnableLogging,
		now:            config.Now,
	}

	if e.actions == nil {
		e.actions = planner.RespondPlanner{}
	}
	if e.executor == nil {
		e.executor = resilience.NewDefaultExecutor()
	}
	if e.metrics == nil {
		e.metrics = telemetry.NoopMetricsProvider{}
	}
	if e.maxIterations <= 0 {
		e.maxIterations = DefaultMaxIterations
	}
	if e.memoryCapacity <= 0 {
		e.memoryCapacity = memory.DefaultCapacity
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.dispatcher = NewDispatcher(e.registry, e.executor)

	return e, nil
}

// Pipeline returns the hook pipeline, for registering hooks after construction.
func (e *Engine) Pipeline() *hook.Pipeline {
	return e.pipeline
}

// run is the bookkeeping of one Run call.
type run struct {
	state  *agent.RunState
	interp *statemachine.Interpreter
	log    []string
	now    func() time.Time
	logOn  bool
}

// enter moves the phase machine. A rejected transition is a defect in the
// loop and ends the run.
func (r *run) enter(p agent.Phase) error {
	if err := r.interp.Enter(p); err != nil {
		return agent.Critical(err)
	}
	return nil
}

func (r *run) logf(format string, args ...any) {
	if !r.logOn {
		return
	}
	r.log = append(r.log, fmt.Sprintf("[%s] %s", r.now().UTC().Format(time.RFC3339Nano), fmt.Sprintf(format, args...)))
}

// Run pursues goal until the provider signals completion or the iteration
// bound is reached. Iteration errors are reported to the error hooks and the
// loop continues, unless the error is critical.
//
// On cancellation the partial result is returned together with ctx.Err().
func (e *Engine) Run(ctx context.Context, goal string, initial map[string]any) (*agent.RunResult, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, agent.ErrEmptyGoal
	}

	machine, err := statemachine.NewPhaseMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to create phase machine: %w", err)
	}

	state := agent.NewRunState(uuid.NewString(), goal, initial, e.memoryCapacity)
	r := &run{
		state:  state,
		interp: statemachine.NewInterpreter(machine, state),
		now:    e.now,
		logOn:  e.enableLogging,
	}

	ctx, span := telemetry.StartSpan(ctx, e.tracer, "agent.run", "run.id", state.RunID)
	start := e.now()
	e.metrics.IncrementActiveRuns(ctx)
	defer e.metrics.DecrementActiveRuns(ctx)

	logging.Info().
		Add(logging.RunID(state.RunID)).
		Add(logging.Goal(goal)).
		Add(logging.Int("max_iterations", e.maxIterations)).
		Msg("run started")
	r.logf("Starting agent with goal: %s", goal)

	r.interp.Start()
	defer r.interp.Stop()

	var (
		reason agent.StopReason
		runErr error
		failed error
	)

	for state.Iteration < e.maxIterations {
		if err := ctx.Err(); err != nil {
			reason, runErr = agent.StopCancelled, err
			break
		}

		state.Iteration++
		r.logf("Iteration %d", state.Iteration)

		done, err := e.iterate(ctx, r)
		if err != nil {
			if e.handleError(ctx, r, err) {
				reason, failed = agent.StopCritical, err
				break
			}
		}
		if done {
			reason = agent.StopGoalAchieved
			break
		}
	}

	if reason == "" {
		if err := ctx.Err(); err != nil {
			reason, runErr = agent.StopCancelled, err
		} else {
			reason = agent.StopMaxIterations
		}
	}
	_ = r.interp.Finish()

	result := agent.NewRunResult(state, reason, r.log)
	if failed != nil {
		result.Error = failed.Error()
	}

	elapsed := e.now().Sub(start)
	e.metrics.RecordRun(ctx, string(reason), state.Iteration, elapsed)
	telemetry.EndSpan(span, errors.Join(runErr, failed))

	logging.Info().
		Add(logging.RunID(state.RunID)).
		Add(logging.Reason(string(reason))).
		Add(logging.Iteration(state.Iteration)).
		Add(logging.Duration(elapsed)).
		Msg("run finished")

	return result, runErr
}

// iterate runs one observe, think, act, learn cycle. It reports true when
// the provider signalled the goal is achieved.
func (e *Engine) iterate(ctx context.Context, r *run) (bool, error) {
	state := r.state
	e.metrics.RecordIteration(ctx, string(agent.PhaseObserve))

	if err := r.enter(agent.PhaseObserve); err != nil {
		return false, err
	}
	observation := e.observe(state)

	if err := r.enter(agent.PhaseThink); err != nil {
		return false, err
	}
	thought, err := e.think(ctx, state, observation)
	if err != nil {
		return false, err
	}
	r.logf("Thought: %s", truncate(thought.Reasoning, 100))

	if thought.IsTerminal() {
		r.logf("Goal achieved")
		logging.Info().
			Add(logging.RunID(state.RunID)).
			Add(logging.Iteration(state.Iteration)).
			Msg("goal achieved")
		return true, nil
	}

	if err := r.enter(agent.PhaseAct); err != nil {
		return false, err
	}
	action, err := e.actions.Plan(ctx, thought, state)
	if err != nil {
		return false, fmt.Errorf("failed to plan action: %w", err)
	}

	hc := &hook.Context{RunID: state.RunID, Phase: state.Phase, State: state, Action: &action}
	outcome := e.pipeline.RunStage(ctx, hook.StagePreAction, hc)
	e.reportApprovals(r, outcome, action)
	if !outcome.Allowed {
		e.metrics.RecordVeto(ctx, outcome.BlockedBy, action.Target)
		r.logf("Action blocked by %s: %s", outcome.BlockedBy, outcome.Message)
		logging.Warn().
			Add(logging.RunID(state.RunID)).
			Add(logging.Iteration(state.Iteration)).
			Add(logging.Action(action)).
			Add(logging.Target(action.Target)).
			Add(logging.HookName(outcome.BlockedBy)).
			Add(logging.Reason(outcome.Message)).
			Msg("action vetoed")
		return false, nil
	}
	if modified, ok := outcome.ModifiedAction(); ok {
		action = *modified
	}

	result, err := e.act(ctx, r, action)
	if err != nil {
		return false, &actionError{action: action, err: err}
	}

	hc = &hook.Context{RunID: state.RunID, Phase: state.Phase, State: state, Action: &action, Result: result}
	post := e.pipeline.RunStage(ctx, hook.StagePostAction, hc)
	e.logHookErrors(state, hook.StagePostAction, post)

	if err := r.enter(agent.PhaseLearn); err != nil {
		return false, err
	}
	learning, err := e.learn(ctx, state, action, result)
	if err != nil {
		return false, &actionError{action: action, err: err}
	}
	state.Merge(learning.NewKnowledge)
	state.Memory.Append(newMemoryRecord(e.now(), state.Iteration, action, learning))
	r.logf("Learning: %s", strings.Join(learning.Insights, ", "))

	return false, nil
}

// observe snapshots the state. It performs no I/O.
func (e *Engine) observe(state *agent.RunState) agent.Observation {
	return agent.NewObservation(agent.ObservationEnvironment, e.now(), agent.Snapshot{
		Goal:               state.Goal,
		Context:            state.Context,
		Iteration:          state.Iteration,
		AvailableTools:     capability.Names(e.registry.Tools()),
		AvailableSkills:    capability.Names(e.registry.Skills()),
		AvailableSubagents: capability.Names(e.registry.Subworkers()),
		Memory:             state.Memory.Recent(RecentMemory),
	})
}

func (e *Engine) think(ctx context.Context, state *agent.RunState, observation agent.Observation) (agent.Thought, error) {
	serialized, err := observation.Serialize()
	if err != nil {
		return agent.Thought{}, fmt.Errorf("failed to serialize observation: %w", err)
	}
	system := systemPrompt(state.Goal, e.registry, e.actions.Instructions())

	text, err := e.complete(ctx, state, "think", system, thinkPrompt(serialized), ThinkMaxTokens)
	if err != nil {
		return agent.Thought{}, err
	}
	return planner.ParseThought(text), nil
}

func (e *Engine) act(ctx context.Context, r *run, action agent.Action) (any, error) {
	ctx, span := telemetry.StartSpan(ctx, e.tracer, "agent.act",
		"action.kind", string(action.Kind), "action.target", action.Target)
	start := e.now()

	result, err := e.dispatcher.Dispatch(ctx, action, r.state)

	e.metrics.RecordAction(ctx, string(action.Kind), action.Target, err == nil, e.now().Sub(start))
	telemetry.EndSpan(span, err)
	if err == nil {
		r.logf("Executed %s -> %s", action.Kind, action.Target)
	}
	return result, err
}

// learn asks for a reflection. Unparseable replies fall back to the default
// learning; provider failures are errors.
func (e *Engine) learn(ctx context.Context, state *agent.RunState, action agent.Action, result any) (agent.Learning, error) {
	text, err := e.complete(ctx, state, "learn", "", learnPrompt(action, result), LearnMaxTokens)
	if err != nil {
		return agent.Learning{}, err
	}
	return planner.ParseLearning(text), nil
}

// complete calls the provider through the executor.
func (e *Engine) complete(ctx context.Context, state *agent.RunState, purpose, system, prompt string, maxTokens int) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, e.tracer, "agent."+purpose,
		"provider", e.provider.Name())
	start := e.now()

	out, err := e.executor.Call(ctx, "provider:"+e.provider.Name(), func(ctx context.Context) (any, error) {
		text, err := planner.Complete(ctx, e.provider, system, prompt, maxTokens)
		if errors.Is(err, agent.ErrEmptyResponse) {
			// Parsed like any other unusable reply.
			return "", nil
		}
		return text, err
	})

	e.metrics.RecordProviderCall(ctx, e.provider.Name(), purpose, err == nil, e.now().Sub(start))
	telemetry.EndSpan(span, err)
	if err != nil {
		logging.Debug().
			Add(logging.RunID(state.RunID)).
			Add(logging.Provider(e.provider.Name())).
			Add(logging.Str("purpose", purpose)).
			Add(logging.ErrorField(err)).
			Msg("provider call failed")
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}

// handleError runs the error stage and reports whether the run must stop.
func (e *Engine) handleError(ctx context.Context, r *run, err error) bool {
	state := r.state
	critical := agent.IsCritical(err)

	hc := &hook.Context{RunID: state.RunID, Phase: state.Phase, State: state, Err: err}
	var ae *actionError
	if errors.As(err, &ae) {
		hc.Action = &ae.action
	}
	out := e.pipeline.RunStage(ctx, hook.StageError, hc)
	e.logHookErrors(state, hook.StageError, out)

	e.metrics.RecordError(ctx, string(state.Phase), critical)
	r.logf("Error in iteration %d: %s", state.Iteration, err)
	logging.Error().
		Add(logging.RunID(state.RunID)).
		Add(logging.Iteration(state.Iteration)).
		Add(logging.Phase(state.Phase)).
		Add(logging.ErrorField(err)).
		Add(logging.Critical(critical)).
		Msg("iteration failed")

	return critical
}

func (e *Engine) reportApprovals(r *run, out hook.Outcome, action agent.Action) {
	for _, name := range out.ApprovalRequired {
		r.logf("Human approval required for %s (flagged by %s)", action.Target, name)
		logging.Warn().
			Add(logging.RunID(r.state.RunID)).
			Add(logging.HookName(name)).
			Add(logging.Target(action.Target)).
			Msg("human approval required")
	}
	e.logHookErrors(r.state, hook.StagePreAction, out)
}

func (e *Engine) logHookErrors(state *agent.RunState, stage hook.Stage, out hook.Outcome) {
	for _, err := range out.Errors {
		logging.Warn().
			Add(logging.RunID(state.RunID)).
			Add(logging.Str("stage", string(stage))).
			Add(logging.ErrorField(err)).
			Msg("hook failed")
	}
}

// actionError carries the action an iteration error belongs to.
type actionError struct {
	action agent.Action
	err    error
}

func (e *actionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.action.Kind, e.action.Target, e.err)
}

func (e *actionError) Unwrap() error {
	return e.err
}

func newMemoryRecord(now time.Time, iteration int, action agent.Action, learning agent.Learning) memory.Record {
	return memory.Record{
		ID:        uuid.NewString(),
		Timestamp: now,
		Phase:     string(agent.PhaseLearn),
		Content:   toJSON(learning),
		Metadata: map[string]any{
			"iteration":     iteration,
			"action_kind":   string(action.Kind),
			"action_target": action.Target,
		},
	}
}

// truncate keeps at most max runes of s.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
