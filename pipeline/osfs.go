package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/package-register/note-summarizer/pathutil"
)

// OSFS implements FileSystem over a notes directory on disk.
// Names are slash-separated and relative to the root; names that would
// escape the root fail with fs.ErrPermission.
type OSFS struct {
	root string
}

// NewOSFS creates a FileSystem rooted at the given directory.
func NewOSFS(root string) *OSFS {
	return &OSFS{root: filepath.Clean(root)}
}

// Root returns the directory the file system is rooted at.
func (f *OSFS) Root() string {
	return f.root
}

// Open implements fs.FS.
func (f *OSFS) Open(name string) (fs.File, error) {
	full, err := f.resolve("open", name)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// ReadFile implements fs.ReadFileFS.
func (f *OSFS) ReadFile(name string) ([]byte, error) {
	full, err := f.resolve("read", name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Stat implements FileSystem.
func (f *OSFS) Stat(name string) (fs.FileInfo, error) {
	full, err := f.resolve("stat", name)
	if err != nil {
		return nil, err
	}
	return os.Stat(full)
}

// ReadDir implements FileSystem.
func (f *OSFS) ReadDir(name string) ([]fs.DirEntry, error) {
	full, err := f.resolve("readdir", name)
	if err != nil {
		return nil, err
	}
	return os.ReadDir(full)
}

func (f *OSFS) resolve(op, name string) (string, error) {
	full, err := pathutil.ResolveSafePath(f.root, name)
	if err != nil {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrPermission}
	}
	return full, nil
}

// Verify interface compliance at compile time.
var _ FileSystem = (*OSFS)(nil)
