package scheduler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"zr/internal/engine/graph"
	"go.trai.ch/zerr"
)

type execResult struct {
	name   domain.InternedString
	result *TaskResult
}

// runState holds the mutable state of a single Scheduler.Run invocation.
// The mutable fields are touched only from the goroutine running run().
// executeTask goroutines send on resultsCh and otherwise read only fields
// fixed at construction (sched, graph, opts, ctx, sems).
type runState struct {
	sched  *Scheduler
	graph  *graph.Graph
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	tasks      map[domain.InternedString]domain.Task
	inDegree   map[domain.InternedString]int
	dependents map[domain.InternedString][]domain.InternedString

	ready     []domain.InternedString
	inFlight  map[domain.InternedString]bool
	active    int
	draining  bool
	resultsCh chan execResult
	results   map[string]*TaskResult
	errs      error

	sems *semaphores
}

func newRunState(s *Scheduler, g *graph.Graph, opts Options, ctx context.Context, cancel context.CancelFunc) *runState {
	tasks := make(map[domain.InternedString]domain.Task)
	for t := range g.Walk() {
		tasks[t.Name] = t
	}

	inDegree := make(map[domain.InternedString]int, len(tasks))
	dependents := make(map[domain.InternedString][]domain.InternedString, len(tasks))
	for name, t := range tasks {
		inDegree[name] = len(t.Dependencies) + len(t.SerialDependencies)
	}
	for name := range tasks {
		for _, dep := range g.Dependents(name) {
			if _, ok := tasks[dep]; ok {
				dependents[name] = append(dependents[name], dep)
			}
		}
	}

	// Serial dependencies run strictly one after another: induce an edge
	// between each consecutive pair so the second never becomes ready before
	// the first resolves, beyond the plain "both precede the origin task"
	// edge the graph already encodes.
	for _, t := range tasks {
		for i := 0; i+1 < len(t.SerialDependencies); i++ {
			from, to := t.SerialDependencies[i], t.SerialDependencies[i+1]
			if _, ok := tasks[to]; !ok {
				continue
			}
			inDegree[to]++
			dependents[from] = append(dependents[from], to)
		}
	}

	var ready []domain.InternedString
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}

	return &runState{
		sched:      s,
		graph:      g,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		tasks:      tasks,
		inDegree:   inDegree,
		dependents: dependents,
		ready:      ready,
		inFlight:   make(map[domain.InternedString]bool, len(tasks)),
		resultsCh:  make(chan execResult, len(tasks)+1),
		results:    make(map[string]*TaskResult, len(tasks)),
		sems:       newSemaphores(opts.Jobs),
	}
}

// run drives the ready-queue loop to completion: every task ends up either
// in st.results or never started because the graph was empty.
func (st *runState) run() error {
	st.schedule()
	for st.active > 0 {
		res := <-st.resultsCh
		st.handleResult(res)
		st.schedule()
	}

	if st.ctx.Err() != nil && !errors.Is(st.ctx.Err(), context.Canceled) {
		st.errs = errors.Join(st.errs, st.ctx.Err())
	}

	return st.errs
}

// schedule dispatches every currently-ready task: during a drain it records
// them as Skipped instead of starting them.
func (st *runState) schedule() {
	for len(st.ready) > 0 {
		name := st.ready[0]
		st.ready = st.ready[1:]

		if st.draining {
			st.recordSkip(name)
			continue
		}

		deps := depFingerprints(st.results, st.tasks[name])
		st.active++
		st.inFlight[name] = true
		t := st.tasks[name]
		go st.executeTask(t, deps)
	}
}

func (st *runState) handleResult(res execResult) {
	st.active--
	delete(st.inFlight, res.name)
	st.results[res.name.String()] = res.result

	if res.result.Status != StatusFailed {
		st.unblockDependents(res.name)
		return
	}

	st.errs = errors.Join(st.errs, res.result.Err)
	if st.opts.KeepGoing {
		st.skipClosure(res.name)
		return
	}

	st.draining = true
	st.cancel()
	st.skipAllPending()
}

func (st *runState) unblockDependents(name domain.InternedString) {
	for _, dep := range st.dependents[name] {
		if _, done := st.results[dep.String()]; done {
			continue
		}
		st.inDegree[dep]--
		if st.inDegree[dep] <= 0 {
			st.ready = append(st.ready, dep)
		}
	}
}

// localDependentsClosure walks st.dependents (graph edges plus the induced
// serial-chain edges) to find every task transitively blocked on name.
func (st *runState) localDependentsClosure(name domain.InternedString) []domain.InternedString {
	seen := make(map[domain.InternedString]bool)
	var out []domain.InternedString
	var walk func(domain.InternedString)
	walk = func(n domain.InternedString) {
		for _, dep := range st.dependents[n] {
			if !seen[dep] {
				seen[dep] = true
				out = append(out, dep)
				walk(dep)
			}
		}
	}
	walk(name)
	return out
}

// skipClosure marks every task transitively dependent on a failed task as
// Skipped, used in --keep-going mode where independent branches continue.
func (st *runState) skipClosure(failed domain.InternedString) {
	for _, name := range st.localDependentsClosure(failed) {
		if st.inFlight[name] {
			continue
		}
		st.recordSkip(name)
	}
}

// skipAllPending marks every task without a recorded result as Skipped,
// used when a failure without --keep-going triggers a full drain.
func (st *runState) skipAllPending() {
	for name := range st.tasks {
		if st.inFlight[name] {
			continue
		}
		st.recordSkip(name)
	}
}

func (st *runState) recordSkip(name domain.InternedString) {
	if _, done := st.results[name.String()]; done {
		return
	}
	st.results[name.String()] = &TaskResult{Name: name.String(), Status: StatusSkipped}
	if t, ok := st.tasks[name]; ok {
		st.recordHistory(t, "", domain.RunSkipped, false, time.Now())
	}
}

// executeTask runs one task node to a terminal result and sends it back to
// the main loop. It reads no mutable runState field; deps are captured by
// the main loop before dispatch to avoid data races on results.
func (st *runState) executeTask(t domain.Task, deps []string) {
	start := time.Now()
	ctx, end := st.sched.tracer.Start(st.ctx, t.Name.String())
	defer end()

	result := st.runTask(ctx, t, deps, start)
	result.Duration = time.Since(start)
	st.resultsCh <- execResult{name: t.Name, result: result}
}

func (st *runState) runTask(ctx context.Context, t domain.Task, deps []string, start time.Time) *TaskResult {
	result := &TaskResult{Name: t.Name.String()}

	if err := st.sems.global.Acquire(ctx, 1); err != nil {
		result.Status = StatusSkipped
		result.Err = err
		return result
	}
	defer st.sems.global.Release(1)

	if sem := st.sems.forTask(t); sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			result.Status = StatusSkipped
			result.Err = err
			return result
		}
		defer sem.Release(1)
	}

	fp, err := st.sched.fingerprint(&t, st.graph.Root(), deps)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	result.Fingerprint = fp

	ok, err := st.sched.evaluator.EvalCondition(t.Condition, ports.Context{
		Env:         t.Environment,
		TaskName:    t.Name.String(),
		Fingerprint: fp,
	})
	if err != nil {
		result.Status = StatusFailed
		result.Err = zerr.With(zerr.Wrap(err, domain.ErrExpressionEvalFailed.Error()), "task", t.Name.String())
		return result
	}
	if !ok {
		result.Status = StatusSkipped
		st.recordHistory(t, fp, domain.RunSkipped, false, start)
		return result
	}

	if !st.opts.NoCache && t.Cache.IsEnabled() {
		if entry, cacheErr := st.sched.cache.Get(st.graph.Root(), fp); cacheErr == nil && entry != nil {
			if replayErr := st.replay(entry); replayErr == nil {
				result.Status = StatusCached
				result.ExitCode = entry.ExitCode
				st.recordHistory(t, fp, domain.RunSucceeded, true, start)
				return result
			}
		}
	}

	return st.executeWithRetry(ctx, t, fp, start)
}

func (st *runState) executeWithRetry(ctx context.Context, t domain.Task, fp string, start time.Time) *TaskResult {
	result := &TaskResult{Name: t.Name.String(), Fingerprint: fp}

	var stdout, stderr bytes.Buffer
	var execErr error
	var execRes ports.ExecResult

	maxAttempts := t.Retry.Count + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		stdout.Reset()
		stderr.Reset()
		result.Attempts = attempt

		execRes, execErr = st.sched.executor.Execute(ctx, &t, nil, &stdout, &stderr)
		if execErr == nil && execRes.ExitCode == 0 {
			break
		}
		if attempt == maxAttempts {
			break
		}
		if waitErr := st.waitBackoff(ctx, t.Retry, attempt); waitErr != nil {
			execErr = waitErr
			break
		}
	}

	result.ExitCode = execRes.ExitCode
	if execErr == nil && execRes.ExitCode == 0 {
		result.Status = StatusSucceeded
		st.storeOnSuccess(t, fp, execRes, stdout.Bytes(), stderr.Bytes())
		st.recordHistory(t, fp, domain.RunSucceeded, false, start)
		return result
	}

	var runErr error
	if execErr != nil {
		runErr = zerr.With(zerr.Wrap(execErr, domain.ErrTaskExecutionFailed.Error()), "task", t.Name.String())
	} else {
		runErr = zerr.With(domain.ErrTaskExecutionFailed, "task", t.Name.String(), "exit_code", execRes.ExitCode)
	}

	if t.AllowFailure {
		result.Status = StatusSucceeded
		result.AllowedFailure = true
		result.Err = runErr
		st.recordHistory(t, fp, domain.RunFailed, false, start)
		return result
	}

	result.Status = StatusFailed
	result.Err = runErr
	st.recordHistory(t, fp, domain.RunFailed, false, start)
	return result
}

func (st *runState) waitBackoff(ctx context.Context, retry domain.RetryPolicy, attempt int) error {
	delay := backoffDelay(retry, attempt)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func backoffDelay(retry domain.RetryPolicy, attempt int) time.Duration {
	switch retry.Backoff {
	case domain.BackoffLinear:
		return time.Duration(attempt) * retry.Base
	case domain.BackoffExponential:
		return retry.Base * time.Duration(int64(1)<<uint(attempt))
	default:
		return 0
	}
}

func (st *runState) resolveWorkingDir(t domain.Task) string {
	if t.WorkingDir.String() != "" {
		return t.WorkingDir.String()
	}
	return st.graph.Root()
}

// storeOnSuccess captures a task's declared outputs into the cache. Output
// paths are recorded relative to the graph root, not the task's working
// directory, so replay can reconstruct them independent of cwd.
func (st *runState) storeOnSuccess(t domain.Task, fp string, execRes ports.ExecResult, stdout, stderr []byte) {
	if st.opts.NoCache || !t.Cache.IsEnabled() || len(t.Cache.Outputs) == 0 {
		return
	}

	wd := st.resolveWorkingDir(t)
	if ok, err := st.sched.verifier.VerifyOutputs(wd, t.Cache.Outputs); err != nil || !ok {
		return
	}

	absOutputs, err := st.sched.resolver.ResolveInputs(t.Cache.Outputs, wd)
	if err != nil {
		return
	}

	blobs := make(map[string]string, len(absOutputs))
	for _, abs := range absOutputs {
		rel, relErr := filepath.Rel(st.graph.Root(), abs)
		if relErr != nil {
			rel = abs
		}
		blobs[rel] = abs
	}

	entry := domain.CacheEntry{
		Fingerprint: fp,
		TaskName:    t.Name.String(),
		ExitCode:    execRes.ExitCode,
		Stdout:      stdout,
		Stderr:      stderr,
		Outputs:     blobs,
		CreatedAt:   time.Now(),
	}

	if err := st.sched.cache.Put(st.graph.Root(), entry); err != nil {
		st.sched.logger.Warn("failed to write cache entry", "task", t.Name.String(), "err", err.Error())
	}
}

// replay re-materializes a cache entry's captured outputs at their
// root-relative destinations, writing each via temp-then-rename.
func (st *runState) replay(entry *domain.CacheEntry) error {
	for rel, blobPath := range entry.Outputs {
		dest := filepath.Join(st.graph.Root(), rel)
		if err := copyFile(blobPath, dest); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src) //nolint:gosec // src is a path recorded by the cache store itself
	if err != nil {
		return zerr.Wrap(err, "failed to read cached output")
	}
	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create output directory")
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // fixed permission, not user input
		return zerr.Wrap(err, "failed to write replayed output")
	}
	return os.Rename(tmp, dest)
}

func (st *runState) recordHistory(t domain.Task, fp string, status domain.RunStatus, cacheHit bool, start time.Time) {
	record := domain.RunRecord{
		TaskName:         t.Name.String(),
		MatrixCoordinate: t.MatrixCoordinate,
		StartedAt:        start,
		EndedAt:          time.Now(),
		Status:           status,
		Fingerprint:      fp,
		CacheHit:         cacheHit,
	}
	if err := st.sched.history.Append(st.graph.Root(), record); err != nil {
		st.sched.logger.Warn("failed to append run history", "task", t.Name.String(), "err", err.Error())
	}
}
