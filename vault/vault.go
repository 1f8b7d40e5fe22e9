// Package vault exposes a directory of notes as the lookup and read
// capabilities the resolver consumes.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/package-register/note-summarizer/logger"
	"github.com/package-register/note-summarizer/pathutil"
	"github.com/package-register/note-summarizer/pipeline"
)

const (
	noteExt          = ".md"
	defaultCacheSize = 256
)

type cachedDoc struct {
	content string
	modTime time.Time
	size    int64
}

// Vault implements pipeline.DocumentStore over a FileSystem.
//
// Links resolve the way note apps resolve wiki links: first as a path
// relative to the linking note, then from the vault root, then by file
// name anywhere in the vault, preferring the linking note's folder and
// then the shortest path.
type Vault struct {
	fs pipeline.FileSystem

	mu    sync.Mutex
	index []string // every file name, sorted; nil until built

	cache *lru.Cache[string, cachedDoc]
}

// Option configures a Vault.
type Option func(*Vault)

// WithCacheSize bounds the number of note bodies kept in memory.
func WithCacheSize(n int) Option {
	return func(v *Vault) {
		if n > 0 {
			v.cache, _ = lru.New[string, cachedDoc](n)
		}
	}
}

// New creates a vault over fsys.
func New(fsys pipeline.FileSystem, opts ...Option) *Vault {
	v := &Vault{fs: fsys}
	v.cache, _ = lru.New[string, cachedDoc](defaultCacheSize)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Open reads a note by ID for use as the active document.
func (v *Vault) Open(ctx context.Context, id string) (pipeline.Document, error) {
	if strings.TrimSpace(id) == "" {
		return pipeline.Document{}, pipeline.ErrNoActiveDocument
	}
	name := path.Clean(strings.TrimPrefix(id, "/"))
	content, err := v.Read(ctx, pipeline.DocumentHandle{ID: name})
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("open note %s: %w", id, err)
	}
	return pipeline.Document{ID: name, Content: content}, nil
}

// Resolve implements pipeline.LinkResolver.
func (v *Vault) Resolve(ctx context.Context, target, contextID string) (pipeline.DocumentHandle, bool) {
	if ctx.Err() != nil || target == "" {
		return pipeline.DocumentHandle{}, false
	}

	for _, cand := range candidates(target) {
		if name, ok := v.direct(pathutil.Dir(contextID), cand); ok {
			return handle(name), true
		}
		if name, ok := v.direct(".", cand); ok {
			return handle(name), true
		}
	}

	index, err := v.files()
	if err != nil {
		logger.With("vault").Warn("index unavailable", "error", err)
		return pipeline.DocumentHandle{}, false
	}
	for _, cand := range candidates(target) {
		if name, ok := bestMatch(index, cand, pathutil.Dir(contextID)); ok {
			return handle(name), true
		}
	}
	return pipeline.DocumentHandle{}, false
}

// Read implements pipeline.DocumentReader. Bodies are cached until the
// file's size or modification time changes.
func (v *Vault) Read(ctx context.Context, h pipeline.DocumentHandle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := v.fs.Stat(h.ID)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", h.ID)
	}
	if c, ok := v.cache.Get(h.ID); ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.content, nil
	}

	data, err := v.fs.ReadFile(h.ID)
	if err != nil {
		return "", err
	}
	content := string(data)
	v.cache.Add(h.ID, cachedDoc{content: content, modTime: info.ModTime(), size: info.Size()})
	return content, nil
}

// Refresh drops the file index so the next lookup rescans the vault.
func (v *Vault) Refresh() {
	v.mu.Lock()
	v.index = nil
	v.mu.Unlock()
}

// Notes returns every markdown note in the vault.
func (v *Vault) Notes() ([]string, error) {
	index, err := v.files()
	if err != nil {
		return nil, err
	}
	var notes []string
	for _, name := range index {
		if strings.EqualFold(path.Ext(name), noteExt) {
			notes = append(notes, name)
		}
	}
	return notes, nil
}

func (v *Vault) direct(dir, cand string) (string, bool) {
	name, ok := pathutil.JoinSlash(dir, cand)
	if !ok {
		return "", false
	}
	info, err := v.fs.Stat(name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return name, true
}

func (v *Vault) files() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.index != nil {
		return v.index, nil
	}

	index := []string{}
	err := v.walkDir(".", func(name string) {
		index = append(index, name)
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(index)
	v.index = index
	return index, nil
}

// walkDir recursively walks the vault, skipping hidden folders such as
// .obsidian and .git.
func (v *Vault) walkDir(dir string, fn func(string)) error {
	entries, err := v.fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := path.Join(dir, name)

		if entry.IsDir() {
			if err := v.walkDir(full, fn); err != nil {
				return err
			}
			continue
		}
		if entry.Type()&fs.ModeType != 0 {
			continue
		}
		fn(full)
	}
	return nil
}

// candidates lists the file names a link path may refer to: the path as
// written, and with the note extension when it has none.
func candidates(linkpath string) []string {
	linkpath = strings.TrimSuffix(linkpath, "/")
	if linkpath == "" {
		return nil
	}
	if path.Ext(linkpath) == "" {
		return []string{linkpath + noteExt, linkpath}
	}
	return []string{linkpath, linkpath + noteExt}
}

// bestMatch finds files whose path ends with cand (case-insensitive,
// on a folder boundary), preferring sourceDir, then the shortest path.
func bestMatch(index []string, cand, sourceDir string) (string, bool) {
	want := strings.ToLower(strings.TrimPrefix(cand, "/"))
	var matches []string
	for _, name := range index {
		lower := strings.ToLower(name)
		if lower == want || strings.HasSuffix(lower, "/"+want) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	for _, m := range matches {
		if path.Dir(m) == sourceDir {
			return m, true
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return len(matches[i]) < len(matches[j])
	})
	return matches[0], true
}

func handle(name string) pipeline.DocumentHandle {
	return pipeline.DocumentHandle{
		ID:   name,
		Name: strings.TrimSuffix(path.Base(name), path.Ext(name)),
	}
}

var _ pipeline.DocumentStore = (*Vault)(nil)
