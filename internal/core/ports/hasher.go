package ports

import "zr/internal/core/domain"

// Hasher defines the interface for computing a task's fingerprint and
// hashing individual files.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Fingerprint computes the deterministic fingerprint of a task given its
	// resolved environment and matrix coordinate, per the canonical
	// serialization order: command, cwd, filtered env, globbed input tuples,
	// dependency fingerprints, matrix coordinates, explicit cache key.
	Fingerprint(task *domain.Task, env map[string]string, root string, depFingerprints []string) (string, error)

	// ComputeFileHash computes the content hash of a single file.
	ComputeFileHash(path string) (uint64, error)
}
