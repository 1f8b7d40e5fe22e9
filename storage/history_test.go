package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/package-register/note-summarizer/pipeline"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(MemoryPath)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistory_RecordAndRecent(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	runs := []*Run{
		{NoteID: "A.md", CreatedAt: base, References: 2, Summary: "first"},
		{NoteID: "B.md", CreatedAt: base.Add(time.Minute), Code: pipeline.ErrCodeNoReferences},
		{NoteID: "A.md", CreatedAt: base.Add(2 * time.Minute), References: 3, Unresolved: 1, Summary: "second"},
	}
	for _, r := range runs {
		if err := h.Record(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
		if r.ID == 0 {
			t.Fatal("expected ID to be assigned")
		}
	}

	all, err := h.Recent(ctx, 10, "")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(all) != 3 || all[0].Summary != "second" || all[2].Summary != "first" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[1].Succeeded() || !all[0].Succeeded() {
		t.Fatalf("unexpected success flags %+v", all)
	}

	onlyA, err := h.Recent(ctx, 1, "A.md")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(onlyA) != 1 || onlyA[0].Unresolved != 1 {
		t.Fatalf("unexpected filtered result %+v", onlyA)
	}
}

func TestHistory_RejectsRunWithoutNote(t *testing.T) {
	h := newTestHistory(t)
	if err := h.Record(context.Background(), &Run{}); err == nil {
		t.Fatal("expected error for run without note")
	}
}

func TestOpenHistory_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	h, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	if err := h.Record(context.Background(), &Run{NoteID: "n.md"}); err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestNewSQLite_EmptyPath(t *testing.T) {
	if _, err := NewSQLite(SQLiteConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
