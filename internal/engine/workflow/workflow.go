// Package workflow drives a multi-stage Workflow through the Scheduler, one
// stage at a time: approval gates, conditions, and on_failure redirects.
package workflow

import (
	"context"
	"os"
	"strings"

	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"zr/internal/engine/graph"
	"zr/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// StageResult is the terminal outcome of one workflow stage.
type StageResult struct {
	Name   string
	Status domain.StageStatus
	Tasks  map[string]*scheduler.TaskResult
	Err    error
}

// Result is the aggregate outcome of a workflow run: one StageResult per
// stage actually visited, in visit order.
type Result struct {
	Stages []*StageResult
	Err    error
}

// Options configures a single Engine.Run invocation. It is forwarded
// verbatim to every stage's Scheduler batch.
type Options struct {
	Jobs      int
	NoCache   bool
	KeepGoing bool
	DryRun    bool
}

// Engine drives a domain.Workflow's stages through a Scheduler.
type Engine struct {
	scheduler *scheduler.Scheduler
	evaluator ports.ExpressionEvaluator
	gate      ports.ApprovalGate
	tracer    ports.Tracer
	logger    ports.Logger
}

// New creates a new Engine.
func New(sched *scheduler.Scheduler, evaluator ports.ExpressionEvaluator, gate ports.ApprovalGate, tracer ports.Tracer, logger ports.Logger) *Engine {
	return &Engine{scheduler: sched, evaluator: evaluator, gate: gate, tracer: tracer, logger: logger}
}

// Run validates the workflow's on_failure redirect graph for cycles, then
// walks stages in declared order, following redirects and fail_fast stops,
// against the task graph g (g must already contain every task any stage
// names).
func (e *Engine) Run(ctx context.Context, wf domain.Workflow, g *graph.Graph, opts Options) (*Result, error) {
	if err := ValidateRedirects(wf); err != nil {
		return nil, err
	}
	if len(wf.Stages) == 0 {
		return &Result{}, nil
	}

	index := make(map[string]int, len(wf.Stages))
	for i, s := range wf.Stages {
		index[s.Name] = i
	}

	result := &Result{}
	visited := make(map[string]bool, len(wf.Stages))
	cur := 0

	for cur >= 0 && cur < len(wf.Stages) {
		stage := wf.Stages[cur]
		if visited[stage.Name] {
			break
		}
		visited[stage.Name] = true

		sr, redirectTo, err := e.runStage(ctx, stage, g, opts)
		result.Stages = append(result.Stages, sr)
		if err != nil {
			result.Err = err
			return result, err
		}

		if redirectTo == "" {
			cur++
			continue
		}
		next, ok := index[redirectTo]
		if !ok {
			err := zerr.With(domain.ErrStageNotFound, "stage", redirectTo)
			result.Err = err
			return result, err
		}
		cur = next
	}

	return result, nil
}

// runStage executes one stage to a terminal StageResult. It returns the
// name of an on_failure redirect target when the stage failed and declared
// one; an empty redirect with a nil error means "continue to the next
// stage in declared order"; a non-nil error means "stop the workflow".
func (e *Engine) runStage(ctx context.Context, stage domain.Stage, g *graph.Graph, opts Options) (*StageResult, string, error) {
	ctx, end := e.tracer.Start(ctx, "stage:"+stage.Name)
	defer end()

	sr := &StageResult{Name: stage.Name}

	if stage.Condition != "" {
		ok, err := e.evaluator.EvalCondition(stage.Condition, ports.Context{Env: environ(), TaskName: stage.Name})
		if err != nil {
			sr.Status = domain.StageFailed
			sr.Err = zerr.With(zerr.Wrap(err, domain.ErrExpressionEvalFailed.Error()), "stage", stage.Name)
			return sr, "", sr.Err
		}
		if !ok {
			sr.Status = domain.StageSkipped
			return sr, "", nil
		}
	}

	if stage.RequireGate && !opts.DryRun {
		sr.Status = domain.StageGated
		approved, err := e.gate.Await(ctx, stage.Name)
		if err != nil {
			sr.Status = domain.StageFailed
			sr.Err = zerr.With(domain.ErrWorkflowApprovalTimedOut, "stage", stage.Name)
			return sr, "", sr.Err
		}
		if !approved {
			sr.Status = domain.StageFailed
			sr.Err = zerr.With(domain.ErrWorkflowApprovalDenied, "stage", stage.Name)
			return sr, "", sr.Err
		}
	}

	sub, err := g.Subset(stage.Tasks)
	if err != nil {
		sr.Status = domain.StageFailed
		sr.Err = err
		return sr, "", err
	}

	sr.Status = domain.StageRunning
	res, runErr := e.scheduler.Run(ctx, sub, scheduler.Options{
		Jobs:      opts.Jobs,
		NoCache:   opts.NoCache,
		KeepGoing: opts.KeepGoing,
		DryRun:    opts.DryRun,
	})
	if res != nil {
		sr.Tasks = res.Tasks
	}

	if runErr == nil {
		sr.Status = domain.StageSucceeded
		return sr, "", nil
	}

	if stage.OnFailure != "" {
		sr.Status = domain.StageRedirected
		sr.Err = runErr
		e.logger.Warn("stage failed, redirecting", "stage", stage.Name, "redirect_to", stage.OnFailure, "err", runErr.Error())
		return sr, stage.OnFailure, nil
	}

	sr.Status = domain.StageFailed
	sr.Err = runErr
	if stage.FailFast {
		return sr, "", runErr
	}
	return sr, "", nil
}

// ValidateRedirects rejects a workflow whose on_failure edges form a cycle,
// using the same 3-state DFS the task graph uses for its own cycle check.
func ValidateRedirects(wf domain.Workflow) error {
	visited := make(map[string]int, len(wf.Stages)) // 0 unvisited, 1 visiting, 2 done

	var visit func(name string) error
	visit = func(name string) error {
		visited[name] = 1
		stage, ok := wf.StageByName(name)
		if ok && stage.OnFailure != "" {
			switch visited[stage.OnFailure] {
			case 1:
				return zerr.With(domain.ErrWorkflowCycleDetected, "stage", name, "redirect_to", stage.OnFailure)
			case 0:
				if err := visit(stage.OnFailure); err != nil {
					return err
				}
			}
		}
		visited[name] = 2
		return nil
	}

	for _, s := range wf.Stages {
		if visited[s.Name] == 0 {
			if err := visit(s.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}
	return env
}
