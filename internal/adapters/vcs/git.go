// Package vcs implements ports.VcsBridge by shelling out to git.
package vcs

import (
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"go.trai.ch/zerr"
	"zr/internal/core/domain"
)

// GitBridge implements ports.VcsBridge using the git CLI found on PATH.
type GitBridge struct{}

// NewGitBridge creates a new GitBridge.
func NewGitBridge() *GitBridge {
	return &GitBridge{}
}

// IsRepo reports whether root is inside a git-managed working tree.
func (g *GitBridge) IsRepo(root string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "true"
}

// ResolveRef confirms the given ref exists in root's repository and returns
// its canonical full commit SHA.
func (g *GitBridge) ResolveRef(root, ref string) (string, error) {
	if !g.IsRepo(root) {
		return "", zerr.With(domain.ErrVcsNotRepo, "root", root)
	}

	cmd := exec.Command("git", "rev-parse", "--verify", ref+"^{commit}")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return "", zerr.With(domain.ErrVcsRefUnknown, "ref", ref)
	}

	return strings.TrimSpace(string(out)), nil
}

// ChangedFiles returns the set of files that differ between base and the
// current working tree (including untracked files), with paths relative
// to root.
func (g *GitBridge) ChangedFiles(root, base string) ([]string, error) {
	if !g.IsRepo(root) {
		return nil, zerr.With(domain.ErrVcsNotRepo, "root", root)
	}

	if base == "" {
		base = "HEAD"
	} else if _, err := g.ResolveRef(root, base); err != nil {
		return nil, err
	}

	// The three queries are independent git invocations against the same
	// working tree; run them concurrently rather than paying for three
	// sequential process spawns.
	var changed, staged, untracked []string
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		changed, err = g.diffNames(root, "diff", "--name-only", base)
		if err != nil {
			return zerr.Wrap(err, "git diff against base failed")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		staged, err = g.diffNames(root, "diff", "--name-only", "--cached")
		if err != nil {
			return zerr.Wrap(err, "git diff --cached failed")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		untracked, err = g.diffNames(root, "ls-files", "--others", "--exclude-standard")
		if err != nil {
			return zerr.Wrap(err, "git ls-files for untracked failed")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(changed)+len(staged)+len(untracked))
	result := make([]string, 0, len(changed)+len(staged)+len(untracked))
	for _, group := range [][]string{changed, staged, untracked} {
		for _, f := range group {
			if f == "" {
				continue
			}
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			result = append(result, f)
		}
	}

	return result, nil
}

func (g *GitBridge) diffNames(root string, args ...string) ([]string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "git command failed"), "output", string(out))
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	files := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			files = append(files, l)
		}
	}
	return files, nil
}
