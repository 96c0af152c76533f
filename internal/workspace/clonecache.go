package workspace

import (
	"os"
	"path/filepath"
	"sync"
)

// CloneCache hands out one clone directory per package for the lifetime of a
// run. Access is serialized per package, not globally: two workers resolving
// version pairs of the same package wait on each other, unrelated packages
// proceed in parallel.
type CloneCache struct {
	mu      sync.Mutex
	dir     string
	entries map[string]*cloneEntry
}

type cloneEntry struct {
	mu     sync.Mutex
	dir    string
	cloned bool
}

func newCloneCache(dir string) *CloneCache {
	return &CloneCache{
		dir:     dir,
		entries: make(map[string]*cloneEntry),
	}
}

// WithClone runs clone exactly once per package under the package's lock and
// returns the clone directory. Callers that arrive after a successful clone
// get the directory back without clone being invoked; a failed clone leaves
// no directory behind so a later caller may try again.
func (c *CloneCache) WithClone(pkg string, clone func(dir string) error) (string, error) {
	e := c.entry(pkg)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cloned {
		return e.dir, nil
	}

	if err := clone(e.dir); err != nil {
		os.RemoveAll(e.dir)
		return "", err
	}

	e.cloned = true
	return e.dir, nil
}

// Cloned reports whether a clone already exists for pkg.
func (c *CloneCache) Cloned(pkg string) bool {
	e := c.entry(pkg)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cloned
}

func (c *CloneCache) entry(pkg string) *cloneEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[pkg]
	if !ok {
		e = &cloneEntry{dir: filepath.Join(c.dir, sanitize(pkg))}
		c.entries[pkg] = e
	}
	return e
}
