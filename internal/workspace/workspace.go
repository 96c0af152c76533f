// Package workspace owns all temporary storage for a single run: clones,
// downloads and extractions live under one root that is removed on every
// exit path.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is a process-scoped temporary directory tree. It is created by
// the orchestrator; strategies only ever receive sub-paths within it.
type Workspace struct {
	root   string
	clones *CloneCache
}

// New creates a run workspace under rootDir, or the system temp directory
// when rootDir is empty.
func New(rootDir string) (*Workspace, error) {
	if rootDir != "" {
		if err := os.MkdirAll(rootDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating workspace root %s: %w", rootDir, err)
		}
	}

	root, err := os.MkdirTemp(rootDir, "depdiff-run-*")
	if err != nil {
		return nil, fmt.Errorf("creating run workspace: %w", err)
	}

	clonesDir := filepath.Join(root, "clones")
	if err := os.MkdirAll(clonesDir, 0o755); err != nil {
		os.RemoveAll(root)
		return nil, fmt.Errorf("creating clones dir: %w", err)
	}

	return &Workspace{
		root:   root,
		clones: newCloneCache(clonesDir),
	}, nil
}

// Root returns the workspace root path.
func (w *Workspace) Root() string {
	return w.root
}

// Clones returns the run's repository clone cache.
func (w *Workspace) Clones() *CloneCache {
	return w.clones
}

// ChangeDir creates a fresh directory for one change's downloads and
// extractions. Change directories are never shared across changes.
func (w *Workspace) ChangeDir(pkg string) (string, error) {
	dir, err := os.MkdirTemp(w.root, "change-"+sanitize(pkg)+"-*")
	if err != nil {
		return "", fmt.Errorf("creating change dir for %s: %w", pkg, err)
	}
	return dir, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.root)
}

// sanitize makes a package name safe to embed in a directory name.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "pkg"
	}
	return b.String()
}
