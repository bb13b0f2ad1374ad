package vcs_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zr/internal/adapters/vcs"
	"zr/internal/core/domain"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v failed: %s", args, out)
	}

	run("init")
	run("config", "user.email", "test@zr.local")
	run("config", "user.name", "zr test")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	run("add", "a.txt")
	run("commit", "-m", "initial")

	return dir
}

func TestGitBridge_IsRepo(t *testing.T) {
	bridge := vcs.NewGitBridge()

	dir := initRepo(t)
	assert.True(t, bridge.IsRepo(dir))

	notRepo := t.TempDir()
	assert.False(t, bridge.IsRepo(notRepo))
}

func TestGitBridge_ResolveRef(t *testing.T) {
	bridge := vcs.NewGitBridge()
	dir := initRepo(t)

	sha, err := bridge.ResolveRef(dir, "HEAD")
	require.NoError(t, err)
	assert.Len(t, sha, 40)

	_, err = bridge.ResolveRef(dir, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrVcsRefUnknown)
}

func TestGitBridge_ResolveRef_NotRepo(t *testing.T) {
	bridge := vcs.NewGitBridge()
	notRepo := t.TempDir()

	_, err := bridge.ResolveRef(notRepo, "HEAD")
	assert.ErrorIs(t, err, domain.ErrVcsNotRepo)
}

func TestGitBridge_ChangedFiles(t *testing.T) {
	bridge := vcs.NewGitBridge()
	dir := initRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))

	cmd := exec.Command("git", "add", "b.txt")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	commit := exec.Command("git", "commit", "-m", "add b")
	commit.Dir = dir
	require.NoError(t, commit.Run())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("modified"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("untracked"), 0o644))

	files, err := bridge.ChangedFiles(dir, "HEAD~1")
	require.NoError(t, err)

	assert.Contains(t, files, "a.txt")
	assert.Contains(t, files, "b.txt")
	assert.Contains(t, files, "c.txt")
}

func TestGitBridge_ChangedFiles_NotRepo(t *testing.T) {
	bridge := vcs.NewGitBridge()
	notRepo := t.TempDir()

	_, err := bridge.ChangedFiles(notRepo, "HEAD")
	assert.ErrorIs(t, err, domain.ErrVcsNotRepo)
}
