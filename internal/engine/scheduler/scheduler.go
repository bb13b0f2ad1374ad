// Package scheduler executes a leveled task graph under a bounded worker
// pool: admission via global and per-task-name semaphores, cache
// consult-before-run, retry with backoff, allow-failure propagation, and
// drain-on-failure cancellation.
package scheduler

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"zr/internal/engine/graph"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Status is the terminal (or planned) state of a task within a single run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCached    Status = "cached"
	StatusPlanned   Status = "planned"
)

// TaskResult is the outcome of one task's participation in a run.
type TaskResult struct {
	Name           string
	Status         Status
	Fingerprint    string
	ExitCode       int
	Attempts       int
	Duration       time.Duration
	AllowedFailure bool
	Err            error
}

// Options configures a single Scheduler.Run invocation.
type Options struct {
	// Jobs is the global concurrency cap. 0 defaults to runtime.NumCPU().
	Jobs int
	// NoCache bypasses the cache store entirely: every task executes.
	NoCache bool
	// KeepGoing disables drain-on-failure: independent branches keep running
	// after a non-allow-failure task fails.
	KeepGoing bool
	// DryRun walks the graph and computes fingerprints without executing
	// anything or writing to the cache.
	DryRun bool
}

// Result is the aggregate outcome of a run: one TaskResult per task name,
// plus the first non-nil error encountered (joined across failures).
type Result struct {
	Tasks map[string]*TaskResult
	Err   error
}

// Scheduler drives task execution over a graph.Graph.
type Scheduler struct {
	executor  ports.Executor
	cache     ports.CacheStore
	hasher    ports.Hasher
	resolver  ports.InputResolver
	verifier  ports.Verifier
	history   ports.HistoryStore
	evaluator ports.ExpressionEvaluator
	tracer    ports.Tracer
	logger    ports.Logger
}

// New creates a new Scheduler with the given dependencies.
func New(
	executor ports.Executor,
	cache ports.CacheStore,
	hasher ports.Hasher,
	resolver ports.InputResolver,
	verifier ports.Verifier,
	history ports.HistoryStore,
	evaluator ports.ExpressionEvaluator,
	tracer ports.Tracer,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		executor:  executor,
		cache:     cache,
		hasher:    hasher,
		resolver:  resolver,
		verifier:  verifier,
		history:   history,
		evaluator: evaluator,
		tracer:    tracer,
		logger:    logger,
	}
}

// Run executes every task in g. g is assumed already resolved to exactly
// the set of tasks this run should cover (the Graph Builder performs target
// resolution and transitive-dependency closure before handing off here).
func (s *Scheduler) Run(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}

	if opts.DryRun {
		return s.plan(g)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := newRunState(s, g, opts, runCtx, cancel)
	err := state.run()

	return &Result{Tasks: state.results, Err: err}, err
}

// plan walks the graph in execution order, computing fingerprints without
// running anything, and returns a Result whose tasks are all StatusPlanned.
func (s *Scheduler) plan(g *graph.Graph) (*Result, error) {
	results := make(map[string]*TaskResult)

	for t := range g.Walk() {
		t := t
		fp, err := s.fingerprint(&t, g.Root(), depFingerprints(results, t))
		if err != nil {
			return nil, err
		}
		results[t.Name.String()] = &TaskResult{
			Name:        t.Name.String(),
			Status:      StatusPlanned,
			Fingerprint: fp,
		}
	}

	return &Result{Tasks: results}, nil
}

func (s *Scheduler) fingerprint(t *domain.Task, root string, depFingerprints []string) (string, error) {
	fp, err := s.hasher.Fingerprint(t, t.Environment, root, depFingerprints)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrInputHashComputationFailed.Error()), "task", t.Name.String())
	}
	return fp, nil
}

func depFingerprints(results map[string]*TaskResult, t domain.Task) []string {
	all := make([]string, 0, len(t.Dependencies)+len(t.SerialDependencies))
	for _, dep := range t.Dependencies {
		if r, ok := results[dep.String()]; ok {
			all = append(all, r.Fingerprint)
		}
	}
	for _, dep := range t.SerialDependencies {
		if r, ok := results[dep.String()]; ok {
			all = append(all, r.Fingerprint)
		}
	}
	return all
}

// baseTaskName strips a matrix coordinate suffix ("build[os=linux]" ->
// "build") so matrix spreads of the same declared task share one
// max_concurrent semaphore.
func baseTaskName(name string) string {
	if i := indexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// globalSemaphore and per-task semaphores are held for the lifetime of a
// single run; they are not shared across concurrent Scheduler.Run calls.
type semaphores struct {
	global *semaphore.Weighted

	mu      sync.Mutex
	perTask map[string]*semaphore.Weighted
}

func newSemaphores(jobs int) *semaphores {
	return &semaphores{
		global:  semaphore.NewWeighted(int64(jobs)),
		perTask: make(map[string]*semaphore.Weighted),
	}
}

// forTask returns the per-task-name semaphore for the given task, creating
// it lazily. A task with no MaxConcurrent cap gets a nil semaphore (no
// per-task admission limit beyond the global one).
func (sm *semaphores) forTask(t domain.Task) *semaphore.Weighted {
	if t.Resources.MaxConcurrent <= 0 {
		return nil
	}

	key := baseTaskName(t.Name.String())

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sem, ok := sm.perTask[key]
	if !ok {
		sem = semaphore.NewWeighted(int64(t.Resources.MaxConcurrent))
		sm.perTask[key] = sem
	}
	return sem
}

var errDraining = errors.New("scheduler is draining")
