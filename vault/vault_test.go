package vault

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/package-register/note-summarizer/pipeline"
)

// testFS wraps fstest.MapFS to implement pipeline.FileSystem.
type testFS struct {
	fstest.MapFS
}

func (t testFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(t.MapFS, name)
}

func (t testFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(t.MapFS, name)
}

func newTestVault(files map[string]string) (*Vault, testFS) {
	m := make(fstest.MapFS)
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	tfs := testFS{m}
	return New(tfs), tfs
}

func TestResolve(t *testing.T) {
	v, _ := newTestVault(map[string]string{
		"Index.md":               "index",
		"projects/Plan.md":       "plan",
		"projects/Index.md":      "project index",
		"archive/old/Plan.md":    "old plan",
		"daily/2024-01-01.md":    "day",
		"assets/diagram.png":     "png",
		".obsidian/Secret.md":    "hidden",
		"people/Ada Lovelace.md": "ada",
	})
	ctx := context.Background()

	tests := []struct {
		name      string
		target    string
		contextID string
		wantID    string
		wantOK    bool
	}{
		{"basename from root", "Plan", "Index.md", "projects/Plan.md", true},
		{"same folder preferred", "Index", "projects/Plan.md", "projects/Index.md", true},
		{"root file from root", "Index", "daily/2024-01-01.md", "Index.md", true},
		{"relative path", "old/Plan", "archive/Notes.md", "archive/old/Plan.md", true},
		{"vault path", "archive/old/Plan", "daily/2024-01-01.md", "archive/old/Plan.md", true},
		{"explicit extension", "Plan.md", "Index.md", "projects/Plan.md", true},
		{"case insensitive", "ada lovelace", "Index.md", "people/Ada Lovelace.md", true},
		{"non-note file", "diagram.png", "Index.md", "assets/diagram.png", true},
		{"hidden folder ignored", "Secret", "Index.md", "", false},
		{"missing", "Nowhere", "Index.md", "", false},
		{"empty", "", "Index.md", "", false},
		{"escape denied", "../../etc/passwd", "Index.md", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := v.Resolve(ctx, tt.target, tt.contextID)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok=%v, want %v (got %q)", tt.target, ok, tt.wantOK, h.ID)
			}
			if h.ID != tt.wantID {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.target, h.ID, tt.wantID)
			}
		})
	}
}

func TestResolve_CanceledContext(t *testing.T) {
	v, _ := newTestVault(map[string]string{"A.md": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := v.Resolve(ctx, "A", "B.md"); ok {
		t.Fatal("expected no resolution with canceled context")
	}
}

func TestRead_CachesUntilFileChanges(t *testing.T) {
	v, tfs := newTestVault(map[string]string{"A.md": "first"})
	ctx := context.Background()
	h := pipeline.DocumentHandle{ID: "A.md"}

	got, err := v.Read(ctx, h)
	if err != nil || got != "first" {
		t.Fatalf("first read: %q, %v", got, err)
	}

	tfs.MapFS["A.md"] = &fstest.MapFile{Data: []byte("second, longer")}
	got, err = v.Read(ctx, h)
	if err != nil || got != "second, longer" {
		t.Fatalf("expected changed content, got %q, %v", got, err)
	}
}

func TestRead_Errors(t *testing.T) {
	v, _ := newTestVault(map[string]string{"dir/A.md": "a"})
	ctx := context.Background()

	if _, err := v.Read(ctx, pipeline.DocumentHandle{ID: "missing.md"}); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := v.Read(ctx, pipeline.DocumentHandle{ID: "dir"}); err == nil {
		t.Fatal("expected error reading a directory")
	}
}

func TestOpen(t *testing.T) {
	v, _ := newTestVault(map[string]string{"notes/A.md": "body"})
	ctx := context.Background()

	doc, err := v.Open(ctx, "/notes/A.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "notes/A.md" || doc.Content != "body" {
		t.Fatalf("unexpected document %+v", doc)
	}

	if _, err := v.Open(ctx, "  "); !errors.Is(err, pipeline.ErrNoActiveDocument) {
		t.Fatalf("expected ErrNoActiveDocument, got %v", err)
	}
}

func TestNotesAndRefresh(t *testing.T) {
	v, tfs := newTestVault(map[string]string{"A.md": "a", "img.png": "x"})

	notes, err := v.Notes()
	if err != nil || len(notes) != 1 || notes[0] != "A.md" {
		t.Fatalf("unexpected notes %v, %v", notes, err)
	}

	tfs.MapFS["B.md"] = &fstest.MapFile{Data: []byte("b")}
	if notes, _ := v.Notes(); len(notes) != 1 {
		t.Fatalf("index should be cached, got %v", notes)
	}
	v.Refresh()
	if notes, _ := v.Notes(); len(notes) != 2 {
		t.Fatalf("expected rescanned index, got %v", notes)
	}
}
