package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// Field writes one piece of structured context onto an event.
type Field func(*bolt.Event) *bolt.Event

func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str(key, value) }
}

func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int(key, value) }
}

func RunID(id string) Field { return Str("run_id", id) }
func Goal(goal string) Field { return Str("goal", goal) }
func Target(name string) Field { return Str("target", name) }
func HookName(name string) Field { return Str("hook", name) }
func Reason(reason string) Field { return Str("reason", reason) }
func Provider(name string) Field { return Str("provider", name) }
func Phase(p agent.Phase) Field { return Str("phase", string(p)) }
func Iteration(n int) Field { return Int("iteration", n) }

// Action records the kind and target of a dispatched action.
func Action(a agent.Action) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action_kind", string(a.Kind)).Str("target", a.Target)
	}
}

// Duration is recorded in whole milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int64("duration_ms", d.Milliseconds()) }
}

// ErrorField is a no-op for a nil error.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

func Critical(critical bool) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Bool("critical", critical) }
}
