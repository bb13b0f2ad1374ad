// Package app implements the application layer for zr: orchestration
// methods the CLI layer calls, wiring config loading, the task graph, the
// scheduler, the workflow engine, and the cache/history/VCS adapters.
package app

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"zr/internal/adapters/config"
	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"zr/internal/engine/scheduler"
	"zr/internal/engine/workflow"
	"go.trai.ch/zerr"
)

// App holds every dependency an orchestration method needs.
type App struct {
	configLoader ports.ConfigLoader
	sched        *scheduler.Scheduler
	workflows    *workflow.Engine
	cache        ports.CacheStore
	history      ports.HistoryStore
	vcs          ports.VcsBridge
	resolver     ports.InputResolver
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	workflows *workflow.Engine,
	cache ports.CacheStore,
	history ports.HistoryStore,
	vcs ports.VcsBridge,
	resolver ports.InputResolver,
	logger ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		sched:        sched,
		workflows:    workflows,
		cache:        cache,
		history:      history,
		vcs:          vcs,
		resolver:     resolver,
		logger:       logger,
	}
}

// RunOptions configures a Run invocation.
type RunOptions struct {
	Profile    string
	ConfigPath string
	Jobs       int
	NoCache    bool
	KeepGoing  bool
	DryRun     bool
}

// Run resolves targetNames plus their transitive dependencies out of the
// loaded graph and executes them through the Scheduler.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) (*scheduler.Result, error) {
	if len(targetNames) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	cwd, err := a.resolveCwd(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	g, err := a.configLoader.Load(cwd, opts.Profile)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	names := make([]domain.InternedString, len(targetNames))
	for i, n := range targetNames {
		names[i] = domain.NewInternedString(n)
	}

	sub, err := g.Subset(names)
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	return a.sched.Run(ctx, sub, scheduler.Options{
		Jobs:      jobs,
		NoCache:   opts.NoCache,
		KeepGoing: opts.KeepGoing,
		DryRun:    opts.DryRun,
	})
}

// ValidateOptions configures a Validate invocation.
type ValidateOptions struct {
	Profile    string
	ConfigPath string
	// Strict promotes configuration warnings (e.g. an ignored 'project'
	// table, a missing workspace member config) to a validation failure.
	Strict bool
}

// capturingLogger wraps a ports.Logger to additionally record every Warn
// call, so Validate can promote warnings to errors under --strict.
type capturingLogger struct {
	ports.Logger
	warnings []string
}

func (c *capturingLogger) Warn(msg string, kv ...any) {
	c.warnings = append(c.warnings, msg)
	c.Logger.Warn(msg, kv...)
}

// Validate loads and validates the configuration without executing
// anything, surfacing config/graph construction errors.
func (a *App) Validate(_ context.Context, opts ValidateOptions) error {
	cwd, err := a.resolveCwd(opts.ConfigPath)
	if err != nil {
		return err
	}

	var capture *capturingLogger
	if opts.Strict {
		if loader, ok := a.configLoader.(*config.Loader); ok {
			capture = &capturingLogger{Logger: loader.Logger}
			loader.Logger = capture
			defer func() { loader.Logger = capture.Logger }()
		}
	}

	if _, err := a.configLoader.Load(cwd, opts.Profile); err != nil {
		return zerr.Wrap(err, "configuration is invalid")
	}

	workflows, err := a.configLoader.LoadWorkflows(cwd)
	if err != nil {
		return zerr.Wrap(err, "workflow configuration is invalid")
	}

	for name, wf := range workflows {
		if err := workflow.ValidateRedirects(wf); err != nil {
			return zerr.With(err, "workflow", name)
		}
	}

	if capture != nil && len(capture.warnings) > 0 {
		return zerr.With(domain.ErrConfigValidationFailed, "warnings", strings.Join(capture.warnings, "; "))
	}

	return nil
}

// WorkflowOptions configures a Workflow invocation.
type WorkflowOptions struct {
	Profile    string
	ConfigPath string
	Jobs       int
	NoCache    bool
	KeepGoing  bool
	DryRun     bool
}

// Workflow runs the named workflow stage by stage through the workflow
// Engine.
func (a *App) Workflow(ctx context.Context, name string, opts WorkflowOptions) (*workflow.Result, error) {
	cwd, err := a.resolveCwd(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	g, err := a.configLoader.Load(cwd, opts.Profile)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	workflows, err := a.configLoader.LoadWorkflows(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load workflows")
	}

	wf, ok := workflows[name]
	if !ok {
		return nil, zerr.With(domain.ErrStageNotFound, "workflow", name)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	return a.workflows.Run(ctx, wf, g, workflow.Options{
		Jobs:      jobs,
		NoCache:   opts.NoCache,
		KeepGoing: opts.KeepGoing,
		DryRun:    opts.DryRun,
	})
}

// AffectedOptions configures an Affected invocation.
type AffectedOptions struct {
	Profile             string
	ConfigPath          string
	TaskFilter          string
	IncludeDependents   bool
	IncludeDependencies bool
	ExcludeSelf         bool
}

// AffectedResult is the outcome of an affected-set computation.
type AffectedResult struct {
	Tasks        []string `json:"affected"`
	Base         string   `json:"base"`
	ChangedPaths []string `json:"changed_paths"`
}

// Affected resolves changed files since base into the set of task names
// directly touched by those changes. TaskFilter, when set, restricts the
// directly-touched set to tasks whose unqualified name (the part after the
// last ":" for namespaced workspace tasks) matches it. IncludeDependents and
// IncludeDependencies expand the directly-touched set with the transitive
// dependents or dependencies of each touched task; ExcludeSelf then drops
// the originally-touched tasks themselves, leaving only the expansion.
func (a *App) Affected(_ context.Context, base string, opts AffectedOptions) (AffectedResult, error) {
	cwd, err := a.resolveCwd(opts.ConfigPath)
	if err != nil {
		return AffectedResult{}, err
	}

	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return AffectedResult{}, zerr.Wrap(err, "failed to discover workspace root")
	}

	if !a.vcs.IsRepo(root) {
		return AffectedResult{}, zerr.With(domain.ErrVcsNotRepo, "root", root)
	}

	resolvedBase, err := a.vcs.ResolveRef(root, base)
	if err != nil {
		return AffectedResult{}, err
	}

	changed, err := a.vcs.ChangedFiles(root, resolvedBase)
	if err != nil {
		return AffectedResult{}, err
	}
	changedSet := make(map[string]bool, len(changed))
	for _, f := range changed {
		changedSet[f] = true
	}

	g, err := a.configLoader.Load(cwd, opts.Profile)
	if err != nil {
		return AffectedResult{}, zerr.Wrap(err, "failed to load configuration")
	}

	touched := make(map[domain.InternedString]bool)
	for task := range g.Walk() {
		if opts.TaskFilter != "" && !taskNameMatchesFilter(task.Name.String(), opts.TaskFilter) {
			continue
		}
		if a.taskTouchesChange(root, task, changedSet) {
			touched[task.Name] = true
		}
	}

	affected := make(map[domain.InternedString]bool, len(touched))
	for name := range touched {
		affected[name] = true
	}
	if opts.IncludeDependents {
		for name := range touched {
			for _, dependent := range g.DependentsClosure(name) {
				affected[dependent] = true
			}
		}
	}
	if opts.IncludeDependencies {
		for name := range touched {
			for _, dependency := range g.DependenciesClosure(name) {
				affected[dependency] = true
			}
		}
	}
	if opts.ExcludeSelf {
		for name := range touched {
			delete(affected, name)
		}
	}

	names := make([]string, 0, len(affected))
	for name := range affected {
		names = append(names, name.String())
	}
	sort.Strings(names)

	changedPaths := make([]string, len(changed))
	copy(changedPaths, changed)
	sort.Strings(changedPaths)

	return AffectedResult{Tasks: names, Base: resolvedBase, ChangedPaths: changedPaths}, nil
}

// taskNameMatchesFilter reports whether fullName (possibly namespaced as
// "member:task") matches filter, either exactly or by its unqualified
// suffix.
func taskNameMatchesFilter(fullName, filter string) bool {
	if fullName == filter {
		return true
	}
	if idx := strings.LastIndex(fullName, ":"); idx >= 0 {
		return fullName[idx+1:] == filter
	}
	return false
}

// taskTouchesChange reports whether any file in changedSet falls within
// the task's declared cache inputs, or — for tasks with no inputs declared
// — within the task's own working directory.
func (a *App) taskTouchesChange(root string, task domain.Task, changedSet map[string]bool) bool {
	patterns := task.Cache.Inputs
	if len(patterns) == 0 {
		patterns = []string{"**"}
	}

	taskRoot := root
	if wd := task.WorkingDir.String(); wd != "" {
		taskRoot = wd
	}

	paths, err := a.resolver.ResolveInputs(patterns, taskRoot)
	if err != nil {
		a.logger.Warn("failed to resolve inputs for affected-set computation", "task", task.Name.String(), "err", err.Error())
		return false
	}

	for _, p := range paths {
		if changedSet[p] {
			return true
		}
		if rel, err := filepath.Rel(root, p); err == nil && changedSet[filepath.ToSlash(rel)] {
			return true
		}
	}
	return false
}

// CacheStatus reports the content-addressed cache's contents.
func (a *App) CacheStatus(_ context.Context) (domain.CacheStatus, error) {
	root, err := a.workspaceRoot()
	if err != nil {
		return domain.CacheStatus{}, err
	}
	return a.cache.Status(root)
}

// CacheClearOptions configures a CacheClear invocation.
type CacheClearOptions struct {
	ConfigPath string
	Selective  string
	DryRun     bool
}

// CacheClear removes cache entries, optionally scoped to a single task
// name and optionally as a dry-run report.
func (a *App) CacheClear(_ context.Context, opts CacheClearOptions) (domain.CacheStatus, error) {
	root, err := a.workspaceRootFrom(opts.ConfigPath)
	if err != nil {
		return domain.CacheStatus{}, err
	}
	return a.cache.Clear(root, opts.Selective, opts.DryRun)
}

// Estimate reports the historical duration estimate for a task name.
func (a *App) Estimate(_ context.Context, taskName string, limit int) (domain.Estimate, error) {
	root, err := a.workspaceRoot()
	if err != nil {
		return domain.Estimate{}, err
	}
	return a.history.Estimate(root, taskName, limit)
}

func (a *App) workspaceRoot() (string, error) {
	return a.workspaceRootFrom("")
}

func (a *App) workspaceRootFrom(configPath string) (string, error) {
	cwd, err := a.resolveCwd(configPath)
	if err != nil {
		return "", err
	}
	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return "", zerr.Wrap(err, "failed to discover workspace root")
	}
	return root, nil
}

// resolveCwd returns the directory orchestration methods should treat as the
// working directory for config discovery. When configPath is set (from the
// --config flag) its containing directory is used directly, bypassing the
// normal os.Getwd()-based lookup, so a caller can point zr at a config file
// outside the current directory tree.
func (a *App) resolveCwd(configPath string) (string, error) {
	if configPath != "" {
		return filepath.Dir(configPath), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", zerr.Wrap(err, "failed to get current working directory")
	}
	return cwd, nil
}
