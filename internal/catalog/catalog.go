// Package catalog discovers the notebook templates offered to users. The
// catalog is read once at startup and treated as an immutable snapshot;
// concurrent readers need no locking.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sciapp/notebook-templates/pkg/nbformat"
)

type Catalog struct {
	root  string
	paths []string
	set   map[string]struct{}
}

// Discover walks root recursively and records every notebook template whose
// symlink-resolved location is the file itself, so links leading out of the
// template directory never become templates. An unreadable root is fatal;
// unreadable entries below it are skipped.
func Discover(root string) (*Catalog, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve template directory: %w", err)
	}
	// The root itself may sit behind a symlink (tmpfs setups do this);
	// resolve it first so the per-file comparison only sees links below it.
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve template directory: %w", err)
	}

	c := &Catalog{root: resolvedRoot, set: map[string]struct{}{}}
	err = filepath.WalkDir(resolvedRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == resolvedRoot {
				return walkErr
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, nbformat.Extension) {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil || resolved != path {
			return nil
		}
		rel, err := filepath.Rel(resolvedRoot, path)
		if err != nil {
			return nil
		}
		c.add(filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read template directory %s: %w", root, err)
	}
	return c, nil
}

func (c *Catalog) add(rel string) {
	if _, ok := c.set[rel]; ok {
		return
	}
	c.set[rel] = struct{}{}
	c.paths = append(c.paths, rel)
}

// Paths returns the discovered template paths in discovery order.
func (c *Catalog) Paths() []string {
	return append([]string(nil), c.paths...)
}

func (c *Catalog) Len() int { return len(c.paths) }

// Contains reports whether rel is a discovered template. Paths that were not
// discovered are rejected wholesale, which is also what keeps traversal
// attempts out of the instantiation path.
func (c *Catalog) Contains(rel string) bool {
	_, ok := c.set[rel]
	return ok
}

// FilePath returns the on-disk location of a discovered template.
func (c *Catalog) FilePath(rel string) (string, error) {
	if !c.Contains(rel) {
		return "", os.ErrNotExist
	}
	return filepath.Join(c.root, filepath.FromSlash(rel)), nil
}
