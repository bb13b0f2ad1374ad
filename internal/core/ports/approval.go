package ports

import "context"

// ApprovalGate resolves a workflow stage's manual approval gate.
//
//go:generate go run go.uber.org/mock/mockgen -source=approval.go -destination=mocks/mock_approval.go -package=mocks
type ApprovalGate interface {
	// Await blocks until the named stage's gate is resolved, returning
	// whether it was approved. Implementations honor the well-known
	// APPROVE_ALL=1 environment override before falling back to an
	// interactive prompt.
	Await(ctx context.Context, stageName string) (bool, error)
}
