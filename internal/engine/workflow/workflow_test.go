package workflow_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"zr/internal/core/ports/mocks"
	"zr/internal/engine/graph"
	"zr/internal/engine/scheduler"
	"zr/internal/engine/workflow"
)

type harness struct {
	exec  *mocks.MockExecutor
	eval  *mocks.MockExpressionEvaluator
	gate  *mocks.MockApprovalGate
	engine *workflow.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	exec := mocks.NewMockExecutor(ctrl)
	cache := mocks.NewMockCacheStore(ctrl)
	hasher := mocks.NewMockHasher(ctrl)
	resolver := mocks.NewMockInputResolver(ctrl)
	verifier := mocks.NewMockVerifier(ctrl)
	history := mocks.NewMockHistoryStore(ctrl)
	eval := mocks.NewMockExpressionEvaluator(ctrl)
	tracer := mocks.NewMockTracer(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	gate := mocks.NewMockApprovalGate(ctrl)

	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, func()) {
			return ctx, func() {}
		}).AnyTimes()
	eval.EXPECT().EvalCondition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(expr string, _ ports.Context) (bool, error) {
			return expr != "false", nil
		}).AnyTimes()
	history.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	hasher.EXPECT().Fingerprint(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(task *domain.Task, _ map[string]string, _ string, _ []string) (string, error) {
			return "fp-" + task.Name.String(), nil
		}).AnyTimes()

	sched := scheduler.New(exec, cache, hasher, resolver, verifier, history, eval, tracer, logger)

	return &harness{
		exec:   exec,
		eval:   eval,
		gate:   gate,
		engine: workflow.New(sched, eval, gate, tracer, logger),
	}
}

func task(name string) *domain.Task {
	return &domain.Task{
		Name:       domain.NewInternedString(name),
		Command:    []string{"true"},
		WorkingDir: domain.NewInternedString(""),
		Cache:      domain.CacheSpec{Enabled: boolPtr(false)},
	}
}

func boolPtr(b bool) *bool { return &b }

func buildGraph(t *testing.T, tasks ...*domain.Task) *graph.Graph {
	t.Helper()
	g := graph.New()
	g.SetRoot(t.TempDir())
	for _, tsk := range tasks {
		require.NoError(t, g.AddTask(tsk))
	}
	require.NoError(t, g.Validate())
	return g
}

func TestEngine_Run_SequentialStagesSucceed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		taskA := task("A")
		taskB := task("B")
		g := buildGraph(t, taskA, taskB)

		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ports.ExecResult{ExitCode: 0}, nil).Times(2)

		wf := domain.Workflow{
			Name: "release",
			Stages: []domain.Stage{
				{Name: "build", Tasks: []domain.InternedString{taskA.Name}},
				{Name: "deploy", Tasks: []domain.InternedString{taskB.Name}},
			},
		}

		res, err := h.engine.Run(context.Background(), wf, g, workflow.Options{Jobs: 2})
		require.NoError(t, err)
		require.Len(t, res.Stages, 2)
		assert.Equal(t, domain.StageSucceeded, res.Stages[0].Status)
		assert.Equal(t, domain.StageSucceeded, res.Stages[1].Status)
	})
}

func TestEngine_Run_ConditionSkipsStage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		taskA := task("A")
		g := buildGraph(t, taskA)

		wf := domain.Workflow{
			Stages: []domain.Stage{
				{Name: "build", Tasks: []domain.InternedString{taskA.Name}, Condition: "false"},
			},
		}

		res, err := h.engine.Run(context.Background(), wf, g, workflow.Options{Jobs: 1})
		require.NoError(t, err)
		require.Len(t, res.Stages, 1)
		assert.Equal(t, domain.StageSkipped, res.Stages[0].Status)
	})
}

func TestEngine_Run_GateApproveAllowsStage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		taskA := task("A")
		g := buildGraph(t, taskA)

		h.gate.EXPECT().Await(gomock.Any(), "deploy").Return(true, nil)
		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ports.ExecResult{ExitCode: 0}, nil)

		wf := domain.Workflow{
			Stages: []domain.Stage{
				{Name: "deploy", Tasks: []domain.InternedString{taskA.Name}, RequireGate: true},
			},
		}

		res, err := h.engine.Run(context.Background(), wf, g, workflow.Options{Jobs: 1})
		require.NoError(t, err)
		assert.Equal(t, domain.StageSucceeded, res.Stages[0].Status)
	})
}

func TestEngine_Run_GateDeniedStopsWorkflow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		taskA := task("A")
		g := buildGraph(t, taskA)

		h.gate.EXPECT().Await(gomock.Any(), "deploy").Return(false, nil)

		wf := domain.Workflow{
			Stages: []domain.Stage{
				{Name: "deploy", Tasks: []domain.InternedString{taskA.Name}, RequireGate: true},
			},
		}

		res, err := h.engine.Run(context.Background(), wf, g, workflow.Options{Jobs: 1})
		require.Error(t, err)
		assert.Equal(t, domain.StageFailed, res.Stages[0].Status)
	})
}

func TestEngine_Run_DryRunBypassesGate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		taskA := task("A")
		g := buildGraph(t, taskA)

		// No gate.Await expectation: dry-run must never call it.
		wf := domain.Workflow{
			Stages: []domain.Stage{
				{Name: "deploy", Tasks: []domain.InternedString{taskA.Name}, RequireGate: true},
			},
		}

		res, err := h.engine.Run(context.Background(), wf, g, workflow.Options{DryRun: true})
		require.NoError(t, err)
		assert.Equal(t, domain.StageSucceeded, res.Stages[0].Status)
	})
}

func TestEngine_Run_OnFailureRedirect(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		taskA := task("A")
		taskB := task("B")
		taskC := task("C")
		g := buildGraph(t, taskA, taskB, taskC)

		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tsk *domain.Task, _ []string, _, _ io.Writer) (ports.ExecResult, error) {
				if tsk.Name.String() == "A" {
					return ports.ExecResult{ExitCode: 1}, nil
				}
				return ports.ExecResult{ExitCode: 0}, nil
			}).AnyTimes()

		wf := domain.Workflow{
			Stages: []domain.Stage{
				{Name: "build", Tasks: []domain.InternedString{taskA.Name}, OnFailure: "rollback"},
				{Name: "deploy", Tasks: []domain.InternedString{taskB.Name}},
				{Name: "rollback", Tasks: []domain.InternedString{taskC.Name}},
			},
		}

		res, err := h.engine.Run(context.Background(), wf, g, workflow.Options{Jobs: 1})
		require.NoError(t, err)
		require.Len(t, res.Stages, 2)
		assert.Equal(t, "build", res.Stages[0].Name)
		assert.Equal(t, domain.StageRedirected, res.Stages[0].Status)
		assert.Equal(t, "rollback", res.Stages[1].Name)
		assert.Equal(t, domain.StageSucceeded, res.Stages[1].Status)
	})
}

func TestEngine_Run_FailFastStopsWorkflow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		taskA := task("A")
		taskB := task("B")
		g := buildGraph(t, taskA, taskB)

		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ports.ExecResult{ExitCode: 1}, nil)

		wf := domain.Workflow{
			Stages: []domain.Stage{
				{Name: "build", Tasks: []domain.InternedString{taskA.Name}, FailFast: true},
				{Name: "deploy", Tasks: []domain.InternedString{taskB.Name}},
			},
		}

		res, err := h.engine.Run(context.Background(), wf, g, workflow.Options{Jobs: 1})
		require.Error(t, err)
		require.Len(t, res.Stages, 1)
		assert.Equal(t, domain.StageFailed, res.Stages[0].Status)
	})
}

func TestEngine_Run_FailWithoutFailFastContinues(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)

		taskA := task("A")
		taskB := task("B")
		g := buildGraph(t, taskA, taskB)

		h.exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tsk *domain.Task, _ []string, _, _ io.Writer) (ports.ExecResult, error) {
				if tsk.Name.String() == "A" {
					return ports.ExecResult{ExitCode: 1}, nil
				}
				return ports.ExecResult{ExitCode: 0}, nil
			}).Times(2)

		wf := domain.Workflow{
			Stages: []domain.Stage{
				{Name: "build", Tasks: []domain.InternedString{taskA.Name}},
				{Name: "deploy", Tasks: []domain.InternedString{taskB.Name}},
			},
		}

		res, err := h.engine.Run(context.Background(), wf, g, workflow.Options{Jobs: 1})
		require.NoError(t, err)
		require.Len(t, res.Stages, 2)
		assert.Equal(t, domain.StageFailed, res.Stages[0].Status)
		assert.Equal(t, domain.StageSucceeded, res.Stages[1].Status)
	})
}

func TestEngine_Run_CycleDetected(t *testing.T) {
	taskA := task("A")
	g := buildGraph(t, taskA)
	h := newHarness(t)

	wf := domain.Workflow{
		Stages: []domain.Stage{
			{Name: "a", Tasks: []domain.InternedString{taskA.Name}, OnFailure: "b"},
			{Name: "b", Tasks: []domain.InternedString{taskA.Name}, OnFailure: "a"},
		},
	}

	_, err := h.engine.Run(context.Background(), wf, g, workflow.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrWorkflowCycleDetected))
}
