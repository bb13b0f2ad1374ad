package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes a task's content-addressed fingerprint: command, working
// directory, filtered environment, globbed input file contents, dependency
// fingerprints, matrix coordinate, and any explicit cache key, all written
// to the digest in a fixed order so the same inputs always produce the same
// fingerprint.
type Hasher struct {
	resolver *Resolver
}

// NewHasher creates a new Hasher.
func NewHasher(resolver *Resolver) *Hasher {
	return &Hasher{resolver: resolver}
}

// ComputeFileHash computes the xxhash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	return hasher.Sum64(), nil
}

// Fingerprint computes the deterministic fingerprint for a task execution.
func (h *Hasher) Fingerprint(task *domain.Task, env map[string]string, root string, depFingerprints []string) (string, error) {
	hasher := xxhash.New()

	h.hashTaskDefinition(task, hasher)
	h.hashEnvironment(env, hasher)
	h.hashStrings(depFingerprints, hasher)
	h.hashMatrixCoordinate(task.MatrixCoordinate, hasher)

	if task.Cache.Key != "" {
		_, _ = hasher.WriteString(task.Cache.Key)
	}
	_, _ = hasher.Write([]byte{0})

	if task.Cache.IsEnabled() {
		inputs, err := h.resolver.ResolveInputs(task.Cache.Inputs, root)
		if err != nil {
			return "", err
		}
		for _, path := range inputs {
			if err := h.hashFile(path, hasher); err != nil {
				return "", err
			}
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashTaskDefinition(task *domain.Task, hasher *xxhash.Digest) {
	_, _ = hasher.WriteString(task.Name.String())
	_, _ = hasher.Write([]byte{0})

	for _, segment := range task.Command {
		_, _ = hasher.WriteString(segment)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	_, _ = hasher.WriteString(task.WorkingDir.String())
	_, _ = hasher.Write([]byte{0})

	toolKeys := make([]string, 0, len(task.Tools))
	for k := range task.Tools {
		toolKeys = append(toolKeys, k)
	}
	sort.Strings(toolKeys)
	for _, k := range toolKeys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(task.Tools[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	h.hashStrings(task.Cache.Outputs, hasher)

	for _, dep := range task.Dependencies {
		_, _ = hasher.WriteString(dep.String())
		_, _ = hasher.Write([]byte{0})
	}
	for _, dep := range task.SerialDependencies {
		_, _ = hasher.WriteString(dep.String())
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

func (h *Hasher) hashEnvironment(env map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(env[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

func (h *Hasher) hashStrings(values []string, hasher *xxhash.Digest) {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	for _, v := range sorted {
		_, _ = hasher.WriteString(v)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

func (h *Hasher) hashMatrixCoordinate(coord map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(coord))
	for k := range coord {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(coord[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

func (h *Hasher) hashFile(path string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(path))
	_, _ = mainHasher.Write([]byte{0})

	if strings.HasPrefix(path, MissingInputPrefix) {
		_, _ = mainHasher.Write([]byte{0xff})
		return nil
	}

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
