package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"zr/internal/adapters/fs"
	"zr/internal/core/domain"
)

func newTask(root string) *domain.Task {
	return &domain.Task{
		Name:       domain.NewInternedString("build-web"),
		Command:    []string{"go", "build", "./..."},
		WorkingDir: domain.NewInternedString(root),
		Tools:      map[string]string{"go": "1.25.4"},
		Cache: domain.CacheSpec{
			Inputs:  []string{"dummy.txt"},
			Outputs: []string{"bin/web"},
		},
		Dependencies: []domain.InternedString{domain.NewInternedString("lint")},
		Environment:  map[string]string{"CGO_ENABLED": "0"},
	}
}

func TestHasher_Fingerprint_Deterministic(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "dummy.txt"), []byte("start-content"), domain.PrivateFilePerm))

	resolver := fs.NewResolver()
	hasher := fs.NewHasher(resolver)
	task := newTask(tmpDir)
	env := map[string]string{"HOME": "/users/test"}

	fp1, err := hasher.Fingerprint(task, env, tmpDir, []string{"dep-fingerprint"})
	require.NoError(t, err)
	fp2, err := hasher.Fingerprint(task, env, tmpDir, []string{"dep-fingerprint"})
	require.NoError(t, err)

	require.Equal(t, fp1, fp2)
}

func TestHasher_Fingerprint_ChangesOnContent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "dummy.txt")
	require.NoError(t, os.WriteFile(path, []byte("start-content"), domain.PrivateFilePerm))

	resolver := fs.NewResolver()
	hasher := fs.NewHasher(resolver)
	task := newTask(tmpDir)
	env := map[string]string{}

	before, err := hasher.Fingerprint(task, env, tmpDir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("changed-content"), domain.PrivateFilePerm))

	after, err := hasher.Fingerprint(task, env, tmpDir, nil)
	require.NoError(t, err)

	require.NotEqual(t, before, after)
}

func TestHasher_Fingerprint_ChangesOnDependencyFingerprint(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "dummy.txt"), []byte("content"), domain.PrivateFilePerm))

	resolver := fs.NewResolver()
	hasher := fs.NewHasher(resolver)
	task := newTask(tmpDir)

	fp1, err := hasher.Fingerprint(task, nil, tmpDir, []string{"a"})
	require.NoError(t, err)
	fp2, err := hasher.Fingerprint(task, nil, tmpDir, []string{"b"})
	require.NoError(t, err)

	require.NotEqual(t, fp1, fp2)
}

func TestHasher_ComputeFileHash(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), domain.PrivateFilePerm))

	hasher := fs.NewHasher(fs.NewResolver())
	hash, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	require.NotZero(t, hash)
}
