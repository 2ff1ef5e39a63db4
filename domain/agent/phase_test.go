package agent

import "testing"

func TestPhase_IsValid(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected bool
	}{
		{PhaseObserve, true},
		{PhaseThink, true},
		{PhaseAct, true},
		{PhaseLearn, true},
		{Phase("sleep"), false},
		{Phase(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			if got := tt.phase.IsValid(); got != tt.expected {
				t.Errorf("Phase(%q).IsValid() = %v, want %v", tt.phase, got, tt.expected)
			}
		})
	}
}

func TestPhase_Next(t *testing.T) {
	tests := []struct {
		phase Phase
		next  Phase
	}{
		{PhaseObserve, PhaseThink},
		{PhaseThink, PhaseAct},
		{PhaseAct, PhaseLearn},
		{PhaseLearn, PhaseObserve},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			if got := tt.phase.Next(); got != tt.next {
				t.Errorf("Phase(%q).Next() = %q, want %q", tt.phase, got, tt.next)
			}
		})
	}
}

func TestAllPhases(t *testing.T) {
	phases := AllPhases()
	if len(phases) != 4 {
		t.Fatalf("AllPhases() returned %d phases, want 4", len(phases))
	}
	if phases[0] != PhaseObserve {
		t.Errorf("AllPhases()[0] = %q, want %q", phases[0], PhaseObserve)
	}
}
