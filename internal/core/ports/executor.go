// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"zr/internal/core/domain"
)

// ExecResult carries the outcome of a single process invocation, beyond the
// plain error Execute returns, so callers can populate a CacheEntry or
// RunRecord without re-deriving exit/signal information.
type ExecResult struct {
	ExitCode int
	TimedOut bool
	Signal   string
}

// Executor defines the interface for executing a task's command.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the given task's command with the specified environment,
	// streaming captured output to stdout/stderr, honoring the task's
	// Timeout, and returning the process result.
	//
	// The env parameter holds extra environment variables in "KEY=VALUE"
	// format (the scheduler passes nil); the executor itself filters the
	// process environment and merges env and the task's declared Environment
	// over it.
	Execute(ctx context.Context, task *domain.Task, env []string, stdout, stderr io.Writer) (ExecResult, error)
}
