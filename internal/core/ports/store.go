package ports

import "zr/internal/core/domain"

// CacheStore defines the interface for the content-addressed cache.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Get retrieves the cache entry for a given fingerprint.
	// Returns nil, nil if not found or if the entry was corrupted and pruned.
	Get(root, fingerprint string) (*domain.CacheEntry, error)

	// Put stores a cache entry, replacing any existing entry for the same
	// fingerprint. Writes are atomic (temp file, then rename).
	Put(root string, entry domain.CacheEntry) error

	// Status summarizes the cache store's contents for reporting.
	Status(root string) (domain.CacheStatus, error)

	// Clear removes cache entries under root. When selective is non-empty,
	// only entries for that task name are removed; dryRun reports what
	// would be removed without deleting anything.
	Clear(root string, selective string, dryRun bool) (domain.CacheStatus, error)
}
