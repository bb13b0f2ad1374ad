// Package config loads zr.toml/zr.work.toml configuration into a task graph.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"zr/internal/core/domain"
	"zr/internal/core/ports"
	"zr/internal/engine/graph"
	"go.trai.ch/zerr"
)

// Loader implements ports.ConfigLoader using TOML configuration files.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{
		Logger: logger,
		FS:     NewOSFS(),
	}
}

// NewLoaderWithFS creates a new Loader with the given logger and filesystem.
func NewLoaderWithFS(logger ports.Logger, filesystem FileSystem) *Loader {
	return &Loader{
		Logger: logger,
		FS:     filesystem,
	}
}

// Mode represents whether zr is operating on a single project or a workspace.
type Mode string

const (
	ModeWorkspace  Mode = "workspace"
	ModeStandalone Mode = "standalone"
)

var validProjectNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Load reads the configuration rooted at cwd, merges workspace/member/profile
// overlays, and returns the validated task graph.
func (l *Loader) Load(cwd, profile string) (*graph.Graph, error) {
	configPath, mode, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeStandalone:
		return l.loadProjectFile(configPath, profile)
	case ModeWorkspace:
		return l.loadWorkspaceFile(configPath, profile)
	default:
		return nil, zerr.With(domain.ErrConfigNotFound, "mode", string(mode))
	}
}

// LoadWorkflows reads the workflows declared in the project configuration
// file. In workspace mode (a zr.work.toml is found) it returns no workflows:
// neither the workspace file nor member files are read for them.
func (l *Loader) LoadWorkflows(cwd string) (map[string]domain.Workflow, error) {
	configPath, mode, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}
	if mode == ModeWorkspace {
		return nil, nil
	}

	var pf ProjectFile
	if err := readAndUnmarshal(l, configPath, &pf); err != nil {
		return nil, err
	}

	workflows := make(map[string]domain.Workflow, len(pf.Workflows))
	for name, dto := range pf.Workflows {
		workflows[name] = workflowFromDTO(name, dto)
	}
	return workflows, nil
}

func workflowFromDTO(name string, dto *WorkflowDTO) domain.Workflow {
	stages := make([]domain.Stage, 0, len(dto.Stages))
	for _, s := range dto.Stages {
		stages = append(stages, domain.Stage{
			Name:        s.Name,
			Tasks:       domain.NewInternedStrings(s.Tasks),
			RequireGate: s.RequireGate,
			Condition:   s.Condition,
			FailFast:    s.FailFast,
			OnFailure:   s.OnFailure,
		})
	}
	return domain.Workflow{Name: name, Stages: stages}
}

func (l *Loader) findConfiguration(cwd string) (string, Mode, error) {
	root, err := l.DiscoverRoot(cwd)
	if err != nil {
		return "", "", err
	}

	workspacePath := filepath.Join(root, domain.WorkspaceFileName)
	if _, err := l.FS.Stat(workspacePath); err == nil {
		return workspacePath, ModeWorkspace, nil
	}

	projectPath := filepath.Join(root, domain.ProjectFileName)
	if _, err := l.FS.Stat(projectPath); err == nil {
		return projectPath, ModeStandalone, nil
	}

	return "", "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

// DiscoverRoot walks up from cwd to find the workspace or project root.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	currentDir := cwd
	var standaloneCandidate string

	for {
		workspacePath := filepath.Join(currentDir, domain.WorkspaceFileName)
		if _, err := l.FS.Stat(workspacePath); err == nil {
			return currentDir, nil
		}

		if standaloneCandidate == "" {
			projectPath := filepath.Join(currentDir, domain.ProjectFileName)
			if _, err := l.FS.Stat(projectPath); err == nil {
				standaloneCandidate = currentDir
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if standaloneCandidate != "" {
		return standaloneCandidate, nil
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) loadProjectFile(configPath, profile string) (*graph.Graph, error) {
	var pf ProjectFile
	if err := readAndUnmarshal(l, configPath, &pf); err != nil {
		return nil, err
	}

	if pf.Project != "" {
		l.Logger.Warn(fmt.Sprintf("'project' defined in %s has no effect in standalone mode", domain.ProjectFileName))
	}

	root := resolveRoot(configPath, pf.Root)
	applyProfile(&pf, profile, l.Logger)

	tasks, err := collectTasks(&pf, root, "", nil)
	if err != nil {
		return nil, err
	}

	templates := templatesFromDTO(&pf, root)

	g, err := graph.Build(tasks, templates)
	if err != nil {
		return nil, err
	}
	g.SetRoot(root)
	return g, nil
}

func (l *Loader) loadWorkspaceFile(configPath, profile string) (*graph.Graph, error) {
	var wf WorkspaceFile
	if err := readAndUnmarshal(l, configPath, &wf); err != nil {
		return nil, err
	}

	workspaceRoot := resolveRoot(configPath, wf.Root)

	memberPaths, err := l.resolveMemberPaths(workspaceRoot, wf.Members)
	if err != nil {
		return nil, err
	}

	var allTasks []domain.Task
	templates := graph.Templates{}
	memberNames := make(map[string]string)

	for _, memberPath := range memberPaths {
		relPath, _ := filepath.Rel(workspaceRoot, memberPath)

		isDir, statErr := l.FS.IsDir(memberPath)
		if statErr != nil {
			return nil, statErr
		}
		if !isDir {
			continue
		}

		projectPath := filepath.Join(memberPath, domain.ProjectFileName)
		if _, statErr := l.FS.Stat(projectPath); errors.Is(statErr, fs.ErrNotExist) {
			l.Logger.Warn(fmt.Sprintf("%s missing in member %s, skipping", domain.ProjectFileName, relPath))
			continue
		}

		var pf ProjectFile
		if err := readAndUnmarshal(l, projectPath, &pf); err != nil {
			return nil, err
		}

		if err := validateMember(&pf, relPath); err != nil {
			return nil, err
		}
		if existing, exists := memberNames[pf.Project]; exists {
			e := zerr.With(domain.ErrDuplicateProjectName, "project_name", pf.Project)
			e = zerr.With(e, "first_occurrence", existing)
			return nil, zerr.With(e, "duplicate_at", relPath)
		}
		memberNames[pf.Project] = relPath

		applyProfile(&pf, profile, l.Logger)
		resolvedTools := mergeTools(wf.Tools, pf.Tools)
		pf.Tools = resolvedTools

		tasks, err := collectTasks(&pf, memberPath, pf.Project, wf.Cache)
		if err != nil {
			return nil, err
		}
		allTasks = append(allTasks, tasks...)

		for name, dto := range pf.Templates {
			templates[pf.Project+":"+name] = taskFromDTO(pf.Project+":"+name, dto, domain.NewInternedString(memberPath), wf.Cache)
		}
	}

	g, err := graph.Build(allTasks, templates)
	if err != nil {
		return nil, err
	}
	g.SetRoot(workspaceRoot)
	return g, nil
}

func (l *Loader) resolveMemberPaths(workspaceRoot string, patterns []string) ([]string, error) {
	paths := make(map[string]struct{})
	for _, pattern := range patterns {
		absPattern := filepath.Join(workspaceRoot, pattern)
		matches, err := l.FS.Glob(absPattern)
		if err != nil {
			return nil, zerr.Wrap(err, "member glob pattern failed: "+pattern)
		}
		for _, m := range matches {
			paths[m] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	slices.Sort(sorted)
	return sorted, nil
}

func validateMember(pf *ProjectFile, relPath string) error {
	if pf.Project == "" {
		return zerr.With(domain.ErrMissingProjectName, "directory", relPath)
	}
	if !validProjectNameRegex.MatchString(pf.Project) {
		err := zerr.With(domain.ErrInvalidProjectName, "project_name", pf.Project)
		return zerr.With(err, "directory", relPath)
	}
	return nil
}

// applyProfile merges a selected profile's environment and per-task
// overrides into the project file in place. A no-op if profile is empty or
// unknown.
func applyProfile(pf *ProjectFile, profile string, logger ports.Logger) {
	if profile == "" {
		return
	}
	prof, ok := pf.Profiles[profile]
	if !ok {
		logger.Warn(fmt.Sprintf("profile %q not found, ignoring", profile))
		return
	}

	for name, task := range pf.Tasks {
		task.Environment = mergeEnv(task.Environment, prof.Environment)
		if override, ok := prof.Tasks[name]; ok {
			pf.Tasks[name] = overlayTaskDTO(task, override)
		}
	}
}

func mergeEnv(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// overlayTaskDTO returns base with overlay's non-zero cmd, cwd, timeout,
// retry, cache and condition applied and its env merged over base's env.
// Other overlay fields are ignored.
func overlayTaskDTO(base, overlay *TaskDTO) *TaskDTO {
	merged := *base
	if overlay.Cmd != "" {
		merged.Cmd = overlay.Cmd
	}
	if overlay.WorkingDir != "" {
		merged.WorkingDir = overlay.WorkingDir
	}
	merged.Environment = mergeEnv(base.Environment, overlay.Environment)
	if overlay.Timeout != "" {
		merged.Timeout = overlay.Timeout
	}
	if overlay.Retry != nil {
		merged.Retry = overlay.Retry
	}
	if overlay.Cache != nil {
		merged.Cache = overlay.Cache
	}
	if overlay.Condition != "" {
		merged.Condition = overlay.Condition
	}
	return &merged
}

func templatesFromDTO(pf *ProjectFile, root string) graph.Templates {
	templates := make(graph.Templates, len(pf.Templates))
	for name, dto := range pf.Templates {
		templates[name] = taskFromDTO(name, dto, domain.NewInternedString(root), pf.Cache)
	}
	return templates
}

func collectTasks(pf *ProjectFile, baseDir, namespace string, workspaceCache *CacheDefaultsDTO) ([]domain.Task, error) {
	cacheDefaults := pf.Cache
	if cacheDefaults == nil {
		cacheDefaults = workspaceCache
	}

	tasks := make([]domain.Task, 0, len(pf.Tasks))
	for name := range pf.Tasks {
		dto := pf.Tasks[name]
		if err := validateTaskName(name); err != nil {
			return nil, err
		}

		fullName := name
		if namespace != "" {
			fullName = namespace + ":" + name
		}

		workingDir := resolveTaskWorkingDir(baseDir, dto.WorkingDir)
		deps := namespaceDeps(namespace, dto.DependsOn)
		serialDeps := namespaceDeps(namespace, dto.DependsOnSerial)

		task := taskFromDTO(fullName, dto, workingDir, cacheDefaults)
		task.Dependencies = domain.NewInternedStrings(deps)
		task.SerialDependencies = domain.NewInternedStrings(serialDeps)

		taskTools, err := resolveTaskTools(dto.Toolchain, pf.Tools)
		if err != nil {
			return nil, zerr.With(err, "task", fullName)
		}
		task.Tools = taskTools

		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func namespaceDeps(namespace string, deps []string) []string {
	if namespace == "" {
		return deps
	}
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if strings.Contains(d, ":") {
			out = append(out, d)
		} else {
			out = append(out, namespace+":"+d)
		}
	}
	return out
}

// taskFromDTO converts a TaskDTO into a domain.Task, applying cache
// defaults when the task does not declare its own cache.enabled.
func taskFromDTO(name string, dto *TaskDTO, workingDir domain.InternedString, cacheDefaults *CacheDefaultsDTO) *domain.Task {
	cache := domain.CacheSpec{}
	if dto.Cache != nil {
		cache = domain.CacheSpec{
			Enabled: dto.Cache.Enabled,
			Inputs:  dto.Cache.Inputs,
			Outputs: dto.Cache.Outputs,
			Key:     dto.Cache.Key,
		}
	}
	if cache.Enabled == nil && cacheDefaults != nil {
		cache.Enabled = cacheDefaults.Enabled
	}

	var retry domain.RetryPolicy
	if dto.Retry != nil {
		retry.Count = dto.Retry.Count
		retry.Backoff = domain.BackoffKind(dto.Retry.Backoff)
		if retry.Backoff == "" {
			retry.Backoff = domain.BackoffNone
		}
		if dto.Retry.Base != "" {
			if d, err := time.ParseDuration(dto.Retry.Base); err == nil {
				retry.Base = d
			}
		}
	}

	resources := domain.ResourceCaps{
		MaxConcurrent:  dto.MaxConcurrent,
		MaxCPUPercent:  dto.MaxCPUPercent,
		MaxMemoryBytes: dto.MaxMemoryBytes,
	}

	var timeout time.Duration
	if dto.Timeout != "" {
		if d, err := time.ParseDuration(dto.Timeout); err == nil {
			timeout = d
		}
	}

	var command []string
	if dto.Cmd != "" {
		command = []string{dto.Cmd}
	}

	return &domain.Task{
		Name:           domain.NewInternedString(name),
		Description:    dto.Description,
		Command:        command,
		WorkingDir:     workingDir,
		Environment:    dto.Environment,
		Timeout:        timeout,
		Retry:          retry,
		AllowFailure:   dto.AllowFailure,
		Cache:          cache,
		Resources:      resources,
		Tags:           dto.Tags,
		Condition:      dto.Condition,
		Matrix:         dto.Matrix,
		Template:       dto.Template,
		TemplateParams: dto.TemplateParams,
	}
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

func (l *Loader) readAndUnmarshalTOML(configPath string, target any) error {
	//nolint:gosec // G304: configPath is validated by caller
	data, err := l.FS.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if err := toml.Unmarshal(data, target); err != nil {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	return nil
}

func readAndUnmarshal[T any](l *Loader, configPath string, target *T) error {
	return l.readAndUnmarshalTOML(configPath, target)
}

// validateTaskName checks if the task name is reserved or contains invalid characters.
func validateTaskName(name string) error {
	if name == "all" {
		return zerr.With(domain.ErrReservedTaskName, "task_name", name)
	}
	if strings.Contains(name, ":") {
		err := zerr.With(domain.ErrInvalidTaskName, "invalid_character", ":")
		return zerr.With(err, "task_name", name)
	}
	return nil
}

func mergeTools(base, overlay map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		result[k] = v
	}
	return result
}

// resolveTaskTools maps tool aliases to their version spec. Returns
// ErrMissingTool if any alias is not declared in resolvedTools.
func resolveTaskTools(aliases []string, resolvedTools map[string]string) (map[string]string, error) {
	if len(aliases) == 0 {
		return nil, nil
	}

	result := make(map[string]string, len(aliases))
	for _, alias := range aliases {
		spec, ok := resolvedTools[alias]
		if !ok {
			return nil, zerr.With(domain.ErrMissingTool, "tool_alias", alias)
		}
		result[alias] = spec
	}
	return result, nil
}

func resolveTaskWorkingDir(baseDir, configuredWorkingDir string) domain.InternedString {
	if configuredWorkingDir == "" {
		return domain.NewInternedString(baseDir)
	}
	if filepath.IsAbs(configuredWorkingDir) {
		return domain.NewInternedString(filepath.Clean(configuredWorkingDir))
	}
	return domain.NewInternedString(filepath.Clean(filepath.Join(baseDir, configuredWorkingDir)))
}

// DiscoverConfigPaths finds zr.toml/zr.work.toml paths from cwd, along with
// their mtimes, so callers can cheaply check for config staleness.
func (l *Loader) DiscoverConfigPaths(cwd string) (map[string]int64, error) {
	paths := make(map[string]int64)

	currentDir := cwd
	var standaloneCandidate string

	for {
		workspacePath := filepath.Join(currentDir, domain.WorkspaceFileName)
		if info, err := l.FS.Stat(workspacePath); err == nil {
			paths[workspacePath] = info.ModTime().UnixNano()
			if err := l.discoverMemberPaths(currentDir, paths); err != nil {
				return nil, zerr.Wrap(err, "failed to discover member paths")
			}
			return paths, nil
		}

		if standaloneCandidate == "" {
			projectPath := filepath.Join(currentDir, domain.ProjectFileName)
			if info, err := l.FS.Stat(projectPath); err == nil {
				standaloneCandidate = projectPath
				paths[projectPath] = info.ModTime().UnixNano()
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if standaloneCandidate != "" {
		return paths, nil
	}

	return nil, zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) discoverMemberPaths(workspaceRoot string, paths map[string]int64) error {
	workspacePath := filepath.Join(workspaceRoot, domain.WorkspaceFileName)
	//nolint:gosec // G304: path constructed from validated workspace root
	data, err := l.FS.ReadFile(workspacePath)
	if err != nil {
		return zerr.Wrap(err, "failed to read workspace file")
	}

	var wf WorkspaceFile
	if err := toml.Unmarshal(data, &wf); err != nil {
		return zerr.Wrap(err, "failed to parse workspace file")
	}

	memberPaths, err := l.resolveMemberPaths(workspaceRoot, wf.Members)
	if err != nil {
		return err
	}

	for _, memberPath := range memberPaths {
		projectPath := filepath.Join(memberPath, domain.ProjectFileName)
		if info, err := l.FS.Stat(projectPath); err == nil {
			paths[projectPath] = info.ModTime().UnixNano()
		}
	}

	return nil
}
