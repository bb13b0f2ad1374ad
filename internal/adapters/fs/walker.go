// Package fs provides file system adapters: walking, glob resolution,
// output verification, and task fingerprinting.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files under root, skipping the directories that
// shouldSkipDir rejects (VCS/cache directories and directories matching
// ignores). Files are not matched against ignores.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skip := w.shouldSkipDir(d, ignores); skip != nil {
				return skip
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

func (w *Walker) shouldSkipDir(d fs.DirEntry, ignores []string) error {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj" || name == ".zr") {
		return filepath.SkipDir
	}

	for _, ignore := range ignores {
		matched, _ := filepath.Match(ignore, name)
		if matched {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
	}

	return nil
}
