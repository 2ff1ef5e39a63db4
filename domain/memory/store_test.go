package memory_test

import (
	"fmt"
	"testing"

	"github.com/dokkiitech/LinkDeck-sub000/domain/memory"
)

func record(i int) memory.Record {
	return memory.Record{ID: fmt.Sprintf("mem_%d", i), Phase: "learn"}
}

func TestNewStore_DefaultCapacity(t *testing.T) {
	t.Parallel()

	s := memory.NewStore(0)
	if s.Cap() != memory.DefaultCapacity {
		t.Errorf("Cap() = %d, want %d", s.Cap(), memory.DefaultCapacity)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStore_CapHolds(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 99, 100, 101, 250} {
		t.Run(fmt.Sprintf("appends_%d", n), func(t *testing.T) {
			t.Parallel()

			s := memory.NewStore(memory.DefaultCapacity)
			for i := 0; i < n; i++ {
				s.Append(record(i))
				if s.Len() > memory.DefaultCapacity {
					t.Fatalf("Len() = %d after %d appends, exceeds capacity", s.Len(), i+1)
				}
			}

			all := s.All()
			want := n
			if want > memory.DefaultCapacity {
				want = memory.DefaultCapacity
			}
			if len(all) != want {
				t.Fatalf("len(All()) = %d, want %d", len(all), want)
			}
			// Retained records are exactly the most recent ones, in order.
			first := n - want
			for i, r := range all {
				if r.ID != fmt.Sprintf("mem_%d", first+i) {
					t.Errorf("All()[%d].ID = %s, want mem_%d", i, r.ID, first+i)
				}
			}
		})
	}
}

func TestStore_Recent(t *testing.T) {
	t.Parallel()

	s := memory.NewStore(3)
	for i := 0; i < 5; i++ {
		s.Append(record(i))
	}

	tests := []struct {
		name string
		k    int
		want []string
	}{
		{"zero", 0, nil},
		{"two", 2, []string{"mem_3", "mem_4"}},
		{"all", 3, []string{"mem_2", "mem_3", "mem_4"}},
		{"more than held", 10, []string{"mem_2", "mem_3", "mem_4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Recent(tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("Recent(%d) returned %d records, want %d", tt.k, len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("Recent(%d)[%d] = %s, want %s", tt.k, i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestStore_RecentOnEmpty(t *testing.T) {
	t.Parallel()

	s := memory.NewStore(5)
	if got := s.Recent(5); got == nil || len(got) != 0 {
		t.Errorf("Recent() on empty store = %v, want empty non-nil slice", got)
	}
}
