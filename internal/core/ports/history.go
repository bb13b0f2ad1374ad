package ports

import "zr/internal/core/domain"

// HistoryStore defines the interface for the append-only run history log
// and its duration estimator.
//
//go:generate go run go.uber.org/mock/mockgen -source=history.go -destination=mocks/mock_history.go -package=mocks
type HistoryStore interface {
	// Append adds a RunRecord to the history log.
	Append(root string, record domain.RunRecord) error

	// Estimate reads the last limit records for taskName, drops outliers
	// beyond ±2σ, and returns the mean/stddev duration. Returns
	// domain.ErrNoHistory if no records exist for the task.
	Estimate(root, taskName string, limit int) (domain.Estimate, error)
}
