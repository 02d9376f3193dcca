package pdf

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideDirectory is returned when a path escapes the guarded directory.
var ErrOutsideDirectory = errors.New("path is outside configured directory")

// DirectoryGuard confines file access to a single directory tree.
type DirectoryGuard struct {
	root string
}

// NewDirectoryGuard creates a guard rooted at dir.
func NewDirectoryGuard(dir string) (*DirectoryGuard, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	return &DirectoryGuard{root: filepath.Clean(abs)}, nil
}

// Root returns the guarded directory.
func (g *DirectoryGuard) Root() string { return g.root }

// Resolve turns path into an absolute path inside the guarded directory.
// Relative paths are taken relative to the root. Symlinks are followed
// when the target exists and the resolved location must also stay inside.
func (g *DirectoryGuard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	if !g.within(abs, g.root) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}

	if real, err := filepath.EvalSymlinks(abs); err == nil {
		realRoot := g.root
		if r, err := filepath.EvalSymlinks(g.root); err == nil {
			realRoot = r
		}
		if !g.within(real, realRoot) {
			return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
		}
	}

	return abs, nil
}

func (g *DirectoryGuard) within(path, root string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
