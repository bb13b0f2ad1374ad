package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// MissingInputPrefix marks a sentinel record standing in for a glob pattern
// that matched nothing. It starts with a NUL byte so it can never collide
// with a real filesystem path.
const MissingInputPrefix = "\x00missing-input:"

// Resolver implements ports.InputResolver using doublestar glob matching,
// which supports "**" recursive wildcards in addition to "*"/"?".
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{walker: NewWalker()}
}

// ResolveInputs expands the given glob patterns, rooted at root, into a
// sorted, deduplicated list of absolute file paths. A pattern matching a
// directory is expanded to every file it contains. A pattern that matches
// nothing contributes a sentinel record (prefixed with MissingInputPrefix)
// instead of being dropped, so the fingerprint still changes when a
// previously-missing input starts to exist. ResolveInputs only returns an
// error for malformed glob syntax; a zero-match pattern is not an error.
func (r *Resolver) ResolveInputs(patterns []string, root string) ([]string, error) {
	uniquePaths := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(os.DirFS(root), filepath.ToSlash(pattern))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrGlobInvalid.Error()), "pattern", pattern)
		}

		if len(matches) == 0 {
			uniquePaths[MissingInputPrefix+pattern] = true
			continue
		}

		for _, match := range matches {
			absMatch := filepath.Join(root, match)
			info, err := os.Stat(absMatch)
			if err == nil && info.IsDir() {
				for file := range r.walker.WalkFiles(absMatch, nil) {
					uniquePaths[file] = true
				}
				continue
			}
			uniquePaths[absMatch] = true
		}
	}

	result := make([]string, 0, len(uniquePaths))
	for path := range uniquePaths {
		result = append(result, path)
	}
	sort.Strings(result)

	return result, nil
}
