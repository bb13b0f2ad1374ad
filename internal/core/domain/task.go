package domain

import "time"

// BackoffKind controls the delay between retry attempts.
type BackoffKind string

const (
	// BackoffNone retries immediately.
	BackoffNone BackoffKind = "none"
	// BackoffLinear waits k*base between attempts.
	BackoffLinear BackoffKind = "linear"
	// BackoffExponential waits base*2^k between attempts.
	BackoffExponential BackoffKind = "exponential"
)

// RetryPolicy describes how a failed task is retried before it is
// considered Failed.
type RetryPolicy struct {
	Count   int
	Backoff BackoffKind
	Base    time.Duration
}

// CacheSpec controls whether and how a task participates in the cache.
type CacheSpec struct {
	// Enabled is a pointer so the config loader can distinguish "unset"
	// (inherit from [cache].enabled) from an explicit true/false.
	Enabled *bool
	Inputs  []string
	Outputs []string
	Key     string
}

// IsEnabled reports whether caching is requested for the task, defaulting
// to true when the task did not specify cache.enabled explicitly.
func (c CacheSpec) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// ResourceCaps declares admission-time resource budgets for a task.
// They are not enforced at the OS level (see SPEC_FULL.md open questions).
// The scheduler reads only MaxConcurrent, as a per-task-name admission cap;
// MaxCPUPercent and MaxMemoryBytes are carried but do not affect admission.
type ResourceCaps struct {
	MaxConcurrent  int
	MaxCPUPercent  int
	MaxMemoryBytes int64
}

// Task is a named, user-declared unit of work.
// InternedString fields hold values that repeat heavily across a large
// graph (names, paths) to cut memory pressure.
type Task struct {
	Name               InternedString
	Description        string
	Command            []string
	WorkingDir         InternedString
	Dependencies       []InternedString // parallel deps
	SerialDependencies []InternedString // run strictly before, in declared order
	Environment        map[string]string
	Timeout            time.Duration
	Retry              RetryPolicy
	AllowFailure       bool
	Cache              CacheSpec
	Resources          ResourceCaps
	Tags               []string
	Tools              map[string]string // toolchain requirements, alias -> version spec
	Condition          string
	Matrix             map[string][]string
	Template           string
	TemplateParams     map[string]string

	// MatrixCoordinate holds the axis->value assignment that produced this
	// Task Node from a matrix-expanded Task. Nil for non-matrix tasks.
	MatrixCoordinate map[string]string
}

// HasCommand reports whether the task runs its own command, as opposed to
// being a pure dependency aggregator.
func (t *Task) HasCommand() bool {
	return len(t.Command) > 0
}
