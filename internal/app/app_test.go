package app_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"zr/internal/app"
	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"zr/internal/core/ports/mocks"
	"zr/internal/engine/graph"
	"zr/internal/engine/scheduler"
	"zr/internal/engine/workflow"
)

type harness struct {
	loader   *mocks.MockConfigLoader
	exec     *mocks.MockExecutor
	cache    *mocks.MockCacheStore
	resolver *mocks.MockInputResolver
	history  *mocks.MockHistoryStore
	vcs      *mocks.MockVcsBridge
	gate     *mocks.MockApprovalGate
	app      *app.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	loader := mocks.NewMockConfigLoader(ctrl)
	exec := mocks.NewMockExecutor(ctrl)
	cache := mocks.NewMockCacheStore(ctrl)
	hasher := mocks.NewMockHasher(ctrl)
	resolver := mocks.NewMockInputResolver(ctrl)
	verifier := mocks.NewMockVerifier(ctrl)
	history := mocks.NewMockHistoryStore(ctrl)
	eval := mocks.NewMockExpressionEvaluator(ctrl)
	tracer := mocks.NewMockTracer(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	vcsBridge := mocks.NewMockVcsBridge(ctrl)
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
	wfEngine := workflow.New(sched, eval, gate, tracer, logger)

	return &harness{
		loader:   loader,
		exec:     exec,
		cache:    cache,
		resolver: resolver,
		history:  history,
		vcs:      vcsBridge,
		gate:     gate,
		app: app.New(loader, sched, wfEngine, cache, history, vcsBridge, resolver, logger),
	}
}

func task(name string, deps ...string) *domain.Task {
	return &domain.Task{
		Name:         domain.NewInternedString(name),
		Command:      []string{"true"},
		WorkingDir:   domain.NewInternedString(""),
		Dependencies: domain.NewInternedStrings(deps),
		Cache:        domain.CacheSpec{Enabled: boolPtr(false)},
	}
}

func boolPtr(b bool) *bool { return &b }

func buildGraph(t *testing.T, root string, tasks ...*domain.Task) *graph.Graph {
	t.Helper()
	g := graph.New()
	g.SetRoot(root)
	for _, tsk := range tasks {
		require.NoError(t, g.AddTask(tsk))
	}
	require.NoError(t, g.Validate())
	return g
}

func chdir(t *testing.T) string {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, os.Chdir(cwd)) })
	tmp := t.TempDir()
	require.NoError(t, os.Chdir(tmp))
	return tmp
}

func TestApp_Run_NoTargets(t *testing.T) {
	h := newHarness(t)
	_, err := h.app.Run(context.Background(), nil, app.RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
}

func TestApp_Run_ExecutesTargetAndItsDependency(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	taskA := task("A", "B")
	taskB := task("B")
	g := buildGraph(t, tmp, taskA, taskB)

	h.loader.EXPECT().Load(tmp, "").Return(g, nil)
	h.exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.ExecResult{ExitCode: 0}, nil).Times(2)

	res, err := h.app.Run(context.Background(), []string{"A"}, app.RunOptions{Jobs: 2})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 2)
	assert.Equal(t, scheduler.StatusSucceeded, res.Tasks["A"].Status)
	assert.Equal(t, scheduler.StatusSucceeded, res.Tasks["B"].Status)
}

func TestApp_Validate_Success(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	g := buildGraph(t, tmp, task("A"))
	h.loader.EXPECT().Load(tmp, "").Return(g, nil)
	h.loader.EXPECT().LoadWorkflows(tmp).Return(map[string]domain.Workflow{
		"release": {
			Name: "release",
			Stages: []domain.Stage{
				{Name: "build", Tasks: []domain.InternedString{taskNameOf("A")}},
			},
		},
	}, nil)

	err := h.app.Validate(context.Background(), app.ValidateOptions{})
	require.NoError(t, err)
}

func TestApp_Validate_CatchesWorkflowCycle(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	g := buildGraph(t, tmp, task("A"))
	h.loader.EXPECT().Load(tmp, "").Return(g, nil)
	h.loader.EXPECT().LoadWorkflows(tmp).Return(map[string]domain.Workflow{
		"release": {
			Name: "release",
			Stages: []domain.Stage{
				{Name: "build", OnFailure: "rollback"},
				{Name: "rollback", OnFailure: "build"},
			},
		},
	}, nil)

	err := h.app.Validate(context.Background(), app.ValidateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWorkflowCycleDetected)
}

func TestApp_Workflow_UnknownName(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	g := buildGraph(t, tmp, task("A"))
	h.loader.EXPECT().Load(tmp, "").Return(g, nil)
	h.loader.EXPECT().LoadWorkflows(tmp).Return(map[string]domain.Workflow{}, nil)

	_, err := h.app.Workflow(context.Background(), "missing", app.WorkflowOptions{})
	require.Error(t, err)
}

func TestApp_Workflow_RunsStages(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	taskA := task("A")
	g := buildGraph(t, tmp, taskA)

	h.loader.EXPECT().Load(tmp, "").Return(g, nil)
	h.loader.EXPECT().LoadWorkflows(tmp).Return(map[string]domain.Workflow{
		"release": {
			Name: "release",
			Stages: []domain.Stage{
				{Name: "build", Tasks: []domain.InternedString{taskA.Name}},
			},
		},
	}, nil)
	h.exec.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.ExecResult{ExitCode: 0}, nil)

	res, err := h.app.Workflow(context.Background(), "release", app.WorkflowOptions{Jobs: 1})
	require.NoError(t, err)
	require.Len(t, res.Stages, 1)
	assert.Equal(t, domain.StageSucceeded, res.Stages[0].Status)
}

func TestApp_Affected_NotRepo(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	h.loader.EXPECT().DiscoverRoot(tmp).Return(tmp, nil)
	h.vcs.EXPECT().IsRepo(tmp).Return(false)

	_, err := h.app.Affected(context.Background(), "main", app.AffectedOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVcsNotRepo)
}

func TestApp_Affected_MapsChangedFileToDependent(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	taskA := task("A", "B") // A depends on B
	taskB := task("B")
	g := buildGraph(t, tmp, taskA, taskB)

	h.loader.EXPECT().DiscoverRoot(tmp).Return(tmp, nil)
	h.vcs.EXPECT().IsRepo(tmp).Return(true)
	h.vcs.EXPECT().ResolveRef(tmp, "main").Return("main", nil)
	h.vcs.EXPECT().ChangedFiles(tmp, "main").Return([]string{"b.go"}, nil)
	h.loader.EXPECT().Load(tmp, "").Return(g, nil)

	h.resolver.EXPECT().ResolveInputs([]string{"**"}, tmp).
		DoAndReturn(func(_ []string, root string) ([]string, error) {
			return []string{"b.go", "a.go"}, nil
		}).AnyTimes()

	result, err := h.app.Affected(context.Background(), "main", app.AffectedOptions{IncludeDependents: true})
	require.NoError(t, err)
	assert.Equal(t, "main", result.Base)
	assert.Contains(t, result.Tasks, "A")
	assert.Contains(t, result.Tasks, "B")
}

func TestApp_Affected_TaskFilterRestrictsTouchedSet(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	taskA := task("A", "B")
	taskB := task("B")
	g := buildGraph(t, tmp, taskA, taskB)

	h.loader.EXPECT().DiscoverRoot(tmp).Return(tmp, nil)
	h.vcs.EXPECT().IsRepo(tmp).Return(true)
	h.vcs.EXPECT().ResolveRef(tmp, "main").Return("main", nil)
	h.vcs.EXPECT().ChangedFiles(tmp, "main").Return([]string{"a.go", "b.go"}, nil)
	h.loader.EXPECT().Load(tmp, "").Return(g, nil)

	h.resolver.EXPECT().ResolveInputs([]string{"**"}, tmp).
		DoAndReturn(func(_ []string, _ string) ([]string, error) {
			return []string{"a.go", "b.go"}, nil
		}).AnyTimes()

	result, err := h.app.Affected(context.Background(), "main", app.AffectedOptions{TaskFilter: "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, result.Tasks)
}

func TestApp_CacheStatus(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	h.loader.EXPECT().DiscoverRoot(tmp).Return(tmp, nil)
	h.cache.EXPECT().Status(tmp).Return(domain.CacheStatus{EntryCount: 3, Root: tmp}, nil)

	status, err := h.app.CacheStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, status.EntryCount)
}

func TestApp_CacheClear(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	h.loader.EXPECT().DiscoverRoot(tmp).Return(tmp, nil)
	h.cache.EXPECT().Clear(tmp, "build", true).Return(domain.CacheStatus{EntryCount: 1}, nil)

	status, err := h.app.CacheClear(context.Background(), app.CacheClearOptions{Selective: "build", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, status.EntryCount)
}

func TestApp_Estimate(t *testing.T) {
	tmp := chdir(t)
	h := newHarness(t)

	h.loader.EXPECT().DiscoverRoot(tmp).Return(tmp, nil)
	h.history.EXPECT().Estimate(tmp, "build", 20).Return(domain.Estimate{TaskName: "build", SampleSize: 5}, nil)

	est, err := h.app.Estimate(context.Background(), "build", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, est.SampleSize)
}

func taskNameOf(name string) domain.InternedString {
	return domain.NewInternedString(name)
}
