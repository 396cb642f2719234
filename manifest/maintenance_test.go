package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReconcileBackfillsAndSkipsDuplicates(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	if err := s.WithLock(func(m *Manifest) error {
		e := m.FindOrCreateEntry("specs/a.md", "file")
		e.AppendRun(Run{RunID: "known", Status: StatusPassed, Timestamp: base})
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	recorded := []RecordedRun{
		// Newest listed first to exercise the chronological sort.
		{SpecKey: "specs/b.md", Source: "file", Run: Run{RunID: "b2", Status: StatusPassed, Timestamp: base.Add(2 * time.Hour)}},
		{SpecKey: "specs/b.md", Source: "file", Run: Run{RunID: "b1", Status: StatusFailed, Timestamp: base.Add(time.Hour)}},
		{SpecKey: "specs/a.md", Source: "file", Run: Run{RunID: "known", Status: StatusPassed, Timestamp: base}},
	}

	added, err := s.Reconcile(recorded)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2 (duplicate skipped)", added)
	}

	m := s.Load()
	b := m.Entry("specs/b.md")
	if b == nil {
		t.Fatal("specs/b.md not backfilled")
	}
	if len(b.Runs) != 2 || b.Runs[0].RunID != "b1" || b.Runs[1].RunID != "b2" {
		t.Errorf("runs not chronological: %+v", b.Runs)
	}
	if b.Status != StatusPassed {
		t.Errorf("status = %v, want passed (last run wins)", b.Status)
	}
	if a := m.Entry("specs/a.md"); len(a.Runs) != 1 {
		t.Errorf("duplicate run appended: %+v", a.Runs)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	s := newTestStore(t)
	recorded := []RecordedRun{
		{SpecKey: "specs/a.md", Source: "file", Run: Run{RunID: "r1", Status: StatusPassed, Timestamp: time.Now().UTC()}},
	}

	if added, _ := s.Reconcile(recorded); added != 1 {
		t.Fatalf("first pass added %d, want 1", added)
	}
	if added, _ := s.Reconcile(recorded); added != 0 {
		t.Errorf("second pass added %d, want 0", added)
	}
}

func TestPruneDropsMissingFilesKeepsAdhoc(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, nil)

	present := filepath.Join(root, "specs", "present.md")
	if err := os.MkdirAll(filepath.Dir(present), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(present, []byte("task"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := s.WithLock(func(m *Manifest) error {
		m.FindOrCreateEntry("specs/present.md", "file")
		m.FindOrCreateEntry("specs/deleted.md", "file")
		m.FindOrCreateEntry(AdhocKeyPrefix+"deadbeef0123", "adhoc")
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	removed, err := s.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if len(removed) != 1 || removed[0] != "specs/deleted.md" {
		t.Errorf("removed = %v, want [specs/deleted.md]", removed)
	}

	m := s.Load()
	if m.Entry("specs/present.md") == nil {
		t.Error("entry with existing file pruned")
	}
	if m.Entry(AdhocKeyPrefix+"deadbeef0123") == nil {
		t.Error("adhoc entry pruned; adhoc keys have no file to check")
	}
	if m.Entry("specs/deleted.md") != nil {
		t.Error("entry with missing file kept")
	}
}

func TestBulkAddRegistersUntrackedOnly(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, nil)

	dir := filepath.Join(root, "specs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"a.md", "b.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("task"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if err := s.WithLock(func(m *Manifest) error {
		m.FindOrCreateEntry("specs/a.md", "file")
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	added, err := s.BulkAdd("specs/*.md")
	if err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}
	if len(added) != 1 || added[0] != "specs/b.md" {
		t.Errorf("added = %v, want [specs/b.md]", added)
	}

	m := s.Load()
	b := m.Entry("specs/b.md")
	if b == nil {
		t.Fatal("specs/b.md not registered")
	}
	if b.Status != StatusPending {
		t.Errorf("new entry status = %v, want pending", b.Status)
	}
	if b.Source != "file" {
		t.Errorf("source = %q, want file", b.Source)
	}
}
