// Package cas implements the content-addressed cache store: lookup, insert,
// clear, and status over a local directory tree keyed by task fingerprint.
package cas

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	filePerm = 0o644

	stdoutFile = "stdout"
	stderrFile = "stderr"
	exitFile   = "exit"
	metaFile   = "meta"
	outputsDir = "outputs"

	runnerVersion = "zr-cache-v1"
)

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore using the layout
// <root>/.zr/cache/<prefix>/<fingerprint>/{stdout,stderr,exit,meta,outputs/...}.
// The two-character prefix keeps any single directory from accumulating too
// many entries for common filesystems.
type Store struct{}

// NewStore creates a new content-addressed cache store.
func NewStore() *Store {
	return &Store{}
}

type entryMeta struct {
	TaskName      string            `json:"task_name"`
	ExitCode      int               `json:"exit_code"`
	Outputs       map[string]string `json:"outputs"`
	CreatedAt     string            `json:"created_at"`
	RunnerVersion string            `json:"runner_version"`
}

func entryDir(root, fingerprint string) string {
	prefix := fingerprint
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(root, domain.DefaultCachePath(), prefix, fingerprint)
}

// Get retrieves the cache entry for the given fingerprint. A missing or
// corrupt entry returns (nil, nil): callers treat both as a cache miss. A
// corrupt entry's directory is pruned before returning.
func (s *Store) Get(root, fingerprint string) (*domain.CacheEntry, error) {
	dir := entryDir(root, fingerprint)

	meta, err := s.readMeta(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		_ = os.RemoveAll(dir)
		return nil, nil
	}

	stdout, err := os.ReadFile(filepath.Join(dir, stdoutFile)) //nolint:gosec // path built from trusted cache root
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil
	}
	stderr, err := os.ReadFile(filepath.Join(dir, stderrFile)) //nolint:gosec // path built from trusted cache root
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil
	}

	outputs := make(map[string]string, len(meta.Outputs))
	for relPath, blobName := range meta.Outputs {
		blobPath := filepath.Join(dir, outputsDir, blobName)
		if _, err := os.Stat(blobPath); err != nil {
			_ = os.RemoveAll(dir)
			return nil, nil
		}
		outputs[relPath] = blobPath
	}

	created, err := parseTimestamp(meta.CreatedAt)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil
	}

	return &domain.CacheEntry{
		Fingerprint:   fingerprint,
		TaskName:      meta.TaskName,
		ExitCode:      meta.ExitCode,
		Stdout:        stdout,
		Stderr:        stderr,
		Outputs:       outputs,
		CreatedAt:     created,
		RunnerVersion: meta.RunnerVersion,
	}, nil
}

func (s *Store) readMeta(dir string) (entryMeta, error) {
	var meta entryMeta

	data, err := os.ReadFile(filepath.Join(dir, metaFile)) //nolint:gosec // path built from trusted cache root
	if err != nil {
		return meta, err
	}

	exitData, err := os.ReadFile(filepath.Join(dir, exitFile)) //nolint:gosec // path built from trusted cache root
	if err != nil {
		return meta, err
	}

	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, zerr.Wrap(err, domain.ErrCacheCorrupted.Error())
	}

	exitCode, err := strconv.Atoi(string(bytes.TrimSpace(exitData)))
	if err != nil {
		return meta, zerr.Wrap(err, domain.ErrCacheCorrupted.Error())
	}
	meta.ExitCode = exitCode

	return meta, nil
}

// Put stores a cache entry. entry.Outputs is read as a map of declared
// output path (relative to the graph root) to the absolute
// path of the file to capture; on return the blobs are copied into the
// entry's outputs/ directory. Writes are atomic per file: each file is
// written to a temp path in the same directory, then renamed into place, so
// a crash mid-write never leaves a half-written file visible under its
// final name.
func (s *Store) Put(root string, entry domain.CacheEntry) error {
	dir := entryDir(root, entry.Fingerprint)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create cache entry directory")
	}

	if err := atomicWrite(filepath.Join(dir, stdoutFile), entry.Stdout); err != nil {
		return err
	}
	if err := atomicWrite(filepath.Join(dir, stderrFile), entry.Stderr); err != nil {
		return err
	}
	if err := atomicWrite(filepath.Join(dir, exitFile), []byte(strconv.Itoa(entry.ExitCode))); err != nil {
		return err
	}

	blobNames, err := s.storeOutputs(dir, entry.Outputs)
	if err != nil {
		return err
	}

	meta := entryMeta{
		TaskName:      entry.TaskName,
		Outputs:       blobNames,
		CreatedAt:     timestampNow(entry.CreatedAt),
		RunnerVersion: runnerVersion,
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal cache entry metadata")
	}
	if err := atomicWrite(filepath.Join(dir, metaFile), metaData); err != nil {
		return err
	}

	return nil
}

func (s *Store) storeOutputs(dir string, outputs map[string]string) (map[string]string, error) {
	if len(outputs) == 0 {
		return map[string]string{}, nil
	}

	outDir := filepath.Join(dir, outputsDir)
	if err := os.MkdirAll(outDir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create cache outputs directory")
	}

	blobNames := make(map[string]string, len(outputs))
	index := 0
	for relPath, sourcePath := range outputs {
		blobName := strconv.Itoa(index) + filepath.Ext(relPath)
		index++

		content, err := os.ReadFile(sourcePath) //nolint:gosec // sourcePath supplied by caller-controlled capture step
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read output for caching"), "path", sourcePath)
		}
		if err := atomicWrite(filepath.Join(outDir, blobName), content); err != nil {
			return nil, err
		}
		blobNames[relPath] = blobName
	}

	return blobNames, nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil { //nolint:gosec // filePerm is a fixed constant
		return zerr.With(zerr.Wrap(err, "failed to write cache temp file"), "path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to rename cache temp file"), "path", path)
	}
	return nil
}

// Status summarizes the cache store's entry count and total size on disk.
func (s *Store) Status(root string) (domain.CacheStatus, error) {
	cacheRoot := filepath.Join(root, domain.DefaultCachePath())

	status := domain.CacheStatus{Root: cacheRoot}

	entries, err := listEntryDirs(cacheRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return status, nil
		}
		return status, zerr.Wrap(err, domain.ErrCacheUnavailable.Error())
	}

	status.EntryCount = len(entries)
	for _, dir := range entries {
		size, err := dirSize(dir)
		if err != nil {
			continue
		}
		status.TotalBytes += size

		meta, err := s.readMeta(dir)
		if err != nil {
			continue
		}
		created, err := parseTimestamp(meta.CreatedAt)
		if err != nil {
			continue
		}
		if status.Oldest.IsZero() || created.Before(status.Oldest) {
			status.Oldest = created
		}
		if created.After(status.Newest) {
			status.Newest = created
		}
	}

	return status, nil
}

// Clear removes cache entries. When selective is non-empty, only entries
// whose stored task name matches it are removed. When dryRun is true, no
// files are deleted; the returned status summarizes what would be removed.
func (s *Store) Clear(root string, selective string, dryRun bool) (domain.CacheStatus, error) {
	cacheRoot := filepath.Join(root, domain.DefaultCachePath())
	status := domain.CacheStatus{Root: cacheRoot}

	entries, err := listEntryDirs(cacheRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return status, nil
		}
		return status, zerr.Wrap(err, domain.ErrCacheUnavailable.Error())
	}

	for _, dir := range entries {
		if selective != "" {
			meta, err := s.readMeta(dir)
			if err != nil || meta.TaskName != selective {
				continue
			}
		}

		size, err := dirSize(dir)
		if err != nil {
			continue
		}

		status.EntryCount++
		status.TotalBytes += size

		if !dryRun {
			if err := os.RemoveAll(dir); err != nil {
				return status, zerr.With(zerr.Wrap(err, "failed to remove cache entry"), "dir", dir)
			}
		}
	}

	return status, nil
}

func listEntryDirs(cacheRoot string) ([]string, error) {
	prefixes, err := os.ReadDir(cacheRoot)
	if err != nil {
		return nil, err
	}

	var entries []string
	for _, prefix := range prefixes {
		if !prefix.IsDir() {
			continue
		}
		prefixPath := filepath.Join(cacheRoot, prefix.Name())
		fingerprints, err := os.ReadDir(prefixPath)
		if err != nil {
			continue
		}
		for _, fp := range fingerprints {
			if fp.IsDir() {
				entries = append(entries, filepath.Join(prefixPath, fp.Name()))
			}
		}
	}
	sort.Strings(entries)
	return entries, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
