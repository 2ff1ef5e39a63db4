// Package audit provides the redacted audit trail of hook invocations.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// DefaultMaxEntries is the number of entries a Trail retains.
const DefaultMaxEntries = 1000

// Redacted replaces the value of sensitive keys.
const Redacted = "[REDACTED]"

// sensitiveKeys are matched case-insensitively as substrings of map keys.
var sensitiveKeys = []string{"password", "apikey", "api_key", "secret", "token", "creditcard"}

// ActionRecord is the redacted form of an action.
type ActionRecord struct {
	Kind       agent.ActionKind `json:"type"`
	Target     string           `json:"target"`
	Parameters any              `json:"parameters,omitempty"`
}

// Entry is one audit trail record.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id,omitempty"`
	Stage     string        `json:"stage,omitempty"`
	Phase     string        `json:"phase"`
	Iteration int           `json:"iteration"`
	Goal      string        `json:"goal"`
	Action    *ActionRecord `json:"action,omitempty"`
	Result    any           `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Sink durably stores audit entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}

// Filter specifies criteria for querying entries.
type Filter struct {
	RunID string
	Phase string
	Limit int
}

// Trail is a bounded, concurrency-safe audit trail.
// Entries beyond the capacity are evicted oldest first.
type Trail struct {
	mu      sync.RWMutex
	entries []Entry
	maxLen  int
	sinks   []Sink
}

// Option configures a Trail.
type Option func(*Trail)

// WithMaxEntries sets the maximum number of entries to retain.
func WithMaxEntries(max int) Option {
	return func(t *Trail) {
		if max > 0 {
			t.maxLen = max
		}
	}
}

// WithSink adds a durable sink that receives every entry.
func WithSink(s Sink) Option {
	return func(t *Trail) {
		if s != nil {
			t.sinks = append(t.sinks, s)
		}
	}
}

// NewTrail creates an in-memory audit trail.
func NewTrail(opts ...Option) *Trail {
	t := &Trail{maxLen: DefaultMaxEntries}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewEntry builds a redacted entry for an action and its outcome.
func NewEntry(state *agent.RunState, phase agent.Phase, action *agent.Action, result any, err error) Entry {
	e := Entry{
		Phase:  phase.String(),
		Result: Redact(result),
	}
	if state != nil {
		e.RunID = state.RunID
		e.Iteration = state.Iteration
		e.Goal = state.Goal
	}
	if action != nil {
		e.Action = &ActionRecord{
			Kind:       action.Kind,
			Target:     action.Target,
			Parameters: Redact(action.Parameters),
		}
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Record appends an entry, assigning its ID and timestamp when missing,
// and forwards it to every sink.
func (t *Trail) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = "audit_" + uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	t.mu.Lock()
	t.entries = append(t.entries, e)
	if len(t.entries) > t.maxLen {
		t.entries = t.entries[len(t.entries)-t.maxLen:]
	}
	sinks := t.sinks
	t.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Write(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Entries returns a copy of all retained entries, oldest first.
func (t *Trail) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Query returns retained entries matching the filter.
func (t *Trail) Query(filter Filter) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Entry
	for _, e := range t.entries {
		if filter.RunID != "" && e.RunID != filter.RunID {
			continue
		}
		if filter.Phase != "" && e.Phase != filter.Phase {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// Len returns the number of retained entries.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Clear removes all retained entries.
func (t *Trail) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// Redact returns a copy of v with sensitive map keys replaced by Redacted.
// Structs are converted through JSON so their fields are inspected too.
func Redact(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = Redact(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Redact(item)
		}
		return out
	case string, bool, int, int64, float64, json.Number:
		return val
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return val
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return val
		}
		switch generic.(type) {
		case map[string]any, []any:
			return Redact(generic)
		default:
			return generic
		}
	}
}

// IsSensitiveKey reports whether a map key names a secret.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// JSONSink writes entries as JSON lines to an io.Writer.
type JSONSink struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONSink creates a new JSON lines sink.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{encoder: json.NewEncoder(w)}
}

// Write encodes one entry.
func (s *JSONSink) Write(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.Encode(e)
}

var _ Sink = (*JSONSink)(nil)
