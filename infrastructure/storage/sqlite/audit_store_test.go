package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/security/audit"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/storage/sqlite"
)

func newTestAuditStore(t *testing.T) *sqlite.AuditStore {
	t.Helper()

	store, err := sqlite.OpenAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenAuditStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAuditStore_WriteAndList(t *testing.T) {
	store := newTestAuditStore(t)
	ctx := context.Background()

	base := time.Now()
	for i := 1; i <= 3; i++ {
		e := audit.Entry{
			ID:        "audit_" + string(rune('a'+i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			RunID:     "run-1",
			Phase:     "act",
			Iteration: i,
		}
		if err := store.Write(ctx, e); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := store.Write(ctx, audit.Entry{ID: "other", Timestamp: base, RunID: "run-2", Phase: "learn"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	all, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}

	recent, err := store.List(ctx, "run-1", 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Iteration != 3 || recent[1].Iteration != 2 {
		t.Errorf("expected newest first, got iterations %d, %d", recent[0].Iteration, recent[1].Iteration)
	}
}

func TestAuditStore_AsTrailSink(t *testing.T) {
	store := newTestAuditStore(t)
	trail := audit.NewTrail(audit.WithSink(store))
	ctx := context.Background()

	if err := trail.Record(ctx, audit.Entry{RunID: "run-9", Phase: "act", Result: map[string]any{"password": "x"}}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.List(ctx, "run-9", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected persisted entry to carry the trail-assigned ID")
	}
}

func TestAuditStore_Prune(t *testing.T) {
	store := newTestAuditStore(t)
	ctx := context.Background()

	_ = store.Write(ctx, audit.Entry{ID: "old", Timestamp: time.Now().Add(-48 * time.Hour)})
	_ = store.Write(ctx, audit.Entry{ID: "new", Timestamp: time.Now()})

	n, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned entry, got %d", n)
	}
}

func TestOpenAuditStore_MissingDirectory(t *testing.T) {
	_, err := sqlite.OpenAuditStore(filepath.Join(t.TempDir(), "missing", "audit.db"))
	if !errors.Is(err, sqlite.ErrConnectionFailed) {
		t.Errorf("OpenAuditStore() error = %v, want ErrConnectionFailed", err)
	}
}
