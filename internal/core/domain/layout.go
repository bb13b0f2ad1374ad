package domain

import "path/filepath"

const (
	// ZrDirName is the name of the internal workspace metadata directory.
	ZrDirName = ".zr"

	// CacheDirName is the name of the content-addressed cache directory.
	CacheDirName = "cache"

	// HistoryDirName is the name of the run history directory.
	HistoryDirName = "history"

	// HistoryFileName is the name of the append-only run history log.
	HistoryFileName = "runs.log"

	// SchedulesDirName is the name of the scheduler-adjacent persistence directory.
	SchedulesDirName = "schedules"

	// ProjectFileName is the name of a single-project configuration file.
	ProjectFileName = "zr.toml"

	// WorkspaceFileName is the name of a workspace root configuration file.
	WorkspaceFileName = "zr.work.toml"

	// DebugLogFile is the name of the debug log file.
	DebugLogFile = "debug.log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultZrPath returns the default root directory for zr metadata.
func DefaultZrPath() string {
	return ZrDirName
}

// DefaultCachePath returns the default path for the content-addressed cache.
// It joins .zr and cache.
func DefaultCachePath() string {
	return filepath.Join(ZrDirName, CacheDirName)
}

// DefaultHistoryPath returns the default path for the run history log.
// It joins .zr, history, and runs.log.
func DefaultHistoryPath() string {
	return filepath.Join(ZrDirName, HistoryDirName, HistoryFileName)
}

// DefaultSchedulesPath returns the default path for scheduler-adjacent
// persistence. It joins .zr and schedules.
func DefaultSchedulesPath() string {
	return filepath.Join(ZrDirName, SchedulesDirName)
}

// DefaultDebugLogPath returns the default path for the debug log.
// It joins .zr and debug.log.
func DefaultDebugLogPath() string {
	return filepath.Join(ZrDirName, DebugLogFile)
}
