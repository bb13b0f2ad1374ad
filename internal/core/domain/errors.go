package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrMissingProjectName is returned in workspace mode when a member config is missing a project name.
	ErrMissingProjectName = zerr.New("missing project name")

	// ErrInvalidProjectName is returned when a project name is invalid.
	ErrInvalidProjectName = zerr.New("project name can only contain alphanumeric characters, hyphens and underscores")

	// ErrDuplicateProjectName is returned when multiple members share the same name in a workspace.
	ErrDuplicateProjectName = zerr.New("duplicate project name")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrWorkflowCycleDetected is returned when a workflow's on_failure redirects form a cycle.
	ErrWorkflowCycleDetected = zerr.New("cycle detected in workflow redirects")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrStageNotFound is returned when a workflow references a stage that does not exist,
	// and also when a requested workflow name is not declared.
	ErrStageNotFound = zerr.New("stage not found")

	// ErrNoTargetsSpecified is returned when no targets are specified for the run command.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrOutputPathOutsideRoot is returned when an output path is outside the project root.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside project root")

	// ErrInputNotFound is returned when a declared input file or directory is not found.
	ErrInputNotFound = zerr.New("input not found")

	// ErrReservedTaskName is returned when a task uses a reserved name (e.g., "all").
	ErrReservedTaskName = zerr.New("task name 'all' is reserved")

	// ErrInvalidTaskName is returned when a task name contains invalid characters.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrInvalidBackoffKind is returned when a retry backoff kind is not one of none/linear/exponential.
	ErrInvalidBackoffKind = zerr.New("invalid backoff kind, expected 'none', 'linear' or 'exponential'")

	// ErrCacheCorrupted is returned when a cache entry exists but fails to decode; the entry is pruned.
	ErrCacheCorrupted = zerr.New("cache entry corrupted")

	// ErrCacheUnavailable is returned when the cache store's directory cannot be reached at all.
	ErrCacheUnavailable = zerr.New("cache store unavailable")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigValidationFailed is returned when a parsed config fails semantic validation.
	ErrConfigValidationFailed = zerr.New("config validation failed")

	// ErrConfigNotFound is returned when no project or workspace config file can be found.
	ErrConfigNotFound = zerr.New("could not find a zr project or workspace file")

	// ErrInvalidExpression is returned when a condition or interpolation expression fails to parse.
	ErrInvalidExpression = zerr.New("invalid expression")

	// ErrExpressionEvalFailed is returned when a well-formed expression fails during evaluation.
	ErrExpressionEvalFailed = zerr.New("expression evaluation failed")

	// ErrUnknownVariable is returned when an expression references an undefined variable.
	ErrUnknownVariable = zerr.New("unknown variable")

	// ErrBuildExecutionFailed is returned when the overall run fails.
	ErrBuildExecutionFailed = zerr.New("run execution failed")

	// ErrTaskExecutionFailed is returned when a task execution fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrTaskTimedOut is returned when a task exceeds its configured timeout.
	ErrTaskTimedOut = zerr.New("task timed out")

	// ErrTaskCancelled is returned when a task is cancelled before or during execution.
	ErrTaskCancelled = zerr.New("task cancelled")

	// ErrInputResolutionFailed is returned when input resolution fails.
	ErrInputResolutionFailed = zerr.New("failed to resolve inputs")

	// ErrInputHashComputationFailed is returned when input hash computation fails.
	ErrInputHashComputationFailed = zerr.New("failed to compute input hash")

	// ErrOutputHashComputationFailed is returned when output hash computation fails.
	ErrOutputHashComputationFailed = zerr.New("failed to compute output hash")

	// ErrHistoryUpdateFailed is returned when appending to the history store fails.
	ErrHistoryUpdateFailed = zerr.New("failed to append history record")

	// ErrNoHistory is returned when a duration estimate is requested for a task with no run history.
	ErrNoHistory = zerr.New("no run history available")

	// ErrFailedToGetRoot is returned when the project root path cannot be determined.
	ErrFailedToGetRoot = zerr.New("failed to get absolute path of project root")

	// ErrFailedToGetOutputPath is returned when an output path cannot be determined.
	ErrFailedToGetOutputPath = zerr.New("failed to get absolute path of output")

	// ErrFailedToResolveRelativePath is returned when a relative path cannot be resolved.
	ErrFailedToResolveRelativePath = zerr.New("failed to resolve relative path")

	// ErrFailedToCleanOutput is returned when cleaning an output file fails.
	ErrFailedToCleanOutput = zerr.New("failed to clean output file")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrGlobInvalid is returned when a cache input/output glob pattern fails to compile.
	ErrGlobInvalid = zerr.New("invalid glob pattern")

	// ErrMissingTool is returned when a task references a tool alias that is not defined.
	ErrMissingTool = zerr.New("tool not found")

	// ErrInvalidToolSpec is returned when a tool specification is missing the @ symbol.
	ErrInvalidToolSpec = zerr.New("invalid tool specification, expected format: package@version")

	// ErrMatrixAxisEmpty is returned when a matrix axis declares no values.
	ErrMatrixAxisEmpty = zerr.New("matrix axis has no values")

	// ErrTemplateNotFound is returned when a task references a template that does not exist.
	ErrTemplateNotFound = zerr.New("template not found")

	// ErrTemplateParamMissing is returned when a template placeholder has no supplied value.
	ErrTemplateParamMissing = zerr.New("template parameter missing")

	// ErrVcsUnavailable is returned when the VCS bridge cannot locate or invoke the underlying VCS.
	ErrVcsUnavailable = zerr.New("vcs unavailable")

	// ErrVcsNotRepo is returned when the working directory is not inside a VCS repository.
	ErrVcsNotRepo = zerr.New("not a vcs repository")

	// ErrVcsRefUnknown is returned when a requested VCS ref cannot be resolved.
	ErrVcsRefUnknown = zerr.New("unknown vcs ref")

	// ErrWorkflowApprovalDenied is returned when a gated workflow stage is explicitly rejected.
	ErrWorkflowApprovalDenied = zerr.New("workflow stage approval denied")

	// ErrWorkflowApprovalTimedOut is returned when a gated workflow stage is not approved in time.
	ErrWorkflowApprovalTimedOut = zerr.New("workflow stage approval timed out")
)
