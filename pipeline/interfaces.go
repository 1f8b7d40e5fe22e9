package pipeline

import (
	"context"
	"io/fs"
)

// ──────────────────── Document layer ────────────────────

// DocumentHandle identifies a concrete document known to the host store.
// ID is the store-relative, slash-separated path of the document.
type DocumentHandle struct {
	ID   string
	Name string
}

// Document is a note opened for summarization.
type Document struct {
	ID      string
	Content string
}

// LinkResolver maps a link target to a document, using contextID (the ID of
// the document containing the link) as the base for relative lookups.
type LinkResolver interface {
	Resolve(ctx context.Context, target, contextID string) (DocumentHandle, bool)
}

// DocumentReader returns the full text of a resolved document.
type DocumentReader interface {
	Read(ctx context.Context, handle DocumentHandle) (string, error)
}

// DocumentStore combines lookup and read, which is what a notes vault offers.
type DocumentStore interface {
	LinkResolver
	DocumentReader
}

// ──────────────────── Sink layer ────────────────────

// Sink is an append-only incremental text display.
//
// Open is called once before the first AppendText, Close once after the last.
// Implementations must not require any presentation technology from callers.
type Sink interface {
	Open()
	AppendText(text string)
	Close()
}

// ──────────────────── File system abstraction ────────────────────

// FileSystem abstracts file access so that implementations can be swapped
// for testing (e.g. fstest.MapFS) without touching os.* directly.
type FileSystem interface {
	fs.ReadFileFS
	// Stat returns file info. Mirrors os.Stat semantics.
	Stat(name string) (fs.FileInfo, error)
	// ReadDir returns directory entries. Mirrors os.ReadDir semantics.
	ReadDir(name string) ([]fs.DirEntry, error)
}
