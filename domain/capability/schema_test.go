package capability_test

import (
	"testing"

	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
)

func TestSchema_Validate(t *testing.T) {
	t.Parallel()

	schema := capability.NewSchema().
		Field("to", capability.Required(), capability.TypeOf(capability.TypeString), capability.Pattern(`^[^@]+@[^@]+$`)).
		Field("subject", capability.MaxLength(10)).
		Field("priority", capability.OneOf("low", "high"))

	tests := []struct {
		name    string
		params  map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"to": "a@b.c", "subject": "hi", "priority": "low"}, false},
		{"missing required", map[string]any{"subject": "hi"}, true},
		{"empty required", map[string]any{"to": ""}, true},
		{"wrong type", map[string]any{"to": 42}, true},
		{"bad pattern", map[string]any{"to": "nobody"}, true},
		{"too long", map[string]any{"to": "a@b.c", "subject": "a very long subject"}, true},
		{"not in enum", map[string]any{"to": "a@b.c", "priority": "urgent"}, true},
		{"optional absent", map[string]any{"to": "a@b.c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := schema.Validate(tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchema_NilAcceptsAnything(t *testing.T) {
	t.Parallel()

	var s *capability.Schema
	if err := s.Validate(map[string]any{"anything": true}); err != nil {
		t.Errorf("nil schema Validate() error = %v", err)
	}
	if s.Fields() != nil {
		t.Error("nil schema Fields() should be nil")
	}
}

func TestSchema_Fields(t *testing.T) {
	t.Parallel()

	s := capability.NewSchema().Field("b").Field("a", capability.Required())
	fields := s.Fields()
	if len(fields) != 2 || fields[0] != "a" || fields[1] != "b" {
		t.Errorf("Fields() = %v, want [a b]", fields)
	}
}
