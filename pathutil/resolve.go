package pathutil

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ResolveSafePath validates and resolves a relative path within baseDir.
// It rejects any path that would escape baseDir (path traversal).
func ResolveSafePath(baseDir, relPath string) (string, error) {
	cleanBase := filepath.Clean(baseDir)
	full := filepath.Join(cleanBase, filepath.FromSlash(relPath))
	full = filepath.Clean(full)
	if full != cleanBase && !strings.HasPrefix(full, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal denied: %s", relPath)
	}
	return full, nil
}

// JoinSlash joins a slash-separated link path onto the folder of an io/fs name.
// A leading "/" anchors the link at the root. The result is a valid io/fs
// name, and ok is false when the link climbs above the root.
func JoinSlash(dir, link string) (name string, ok bool) {
	if strings.HasPrefix(link, "/") {
		dir = "."
	}
	joined := path.Clean(path.Join(dir, link))
	if joined == ".." || strings.HasPrefix(joined, "../") || strings.HasPrefix(joined, "/") {
		return "", false
	}
	return joined, true
}

// Dir returns the folder part of an io/fs name ("." for root entries).
func Dir(name string) string {
	return path.Dir(name)
}
