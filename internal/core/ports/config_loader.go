package ports

import (
	"zr/internal/core/domain"
	"zr/internal/engine/graph"
)

// ConfigLoader defines the interface for loading configuration and
// assembling the task graph.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration from the given working directory, merges
	// workspace/member/profile overlays, and returns the validated task graph.
	Load(cwd, profile string) (*graph.Graph, error)

	// LoadWorkflows reads the named workflows declared in the configuration.
	LoadWorkflows(cwd string) (map[string]domain.Workflow, error)

	// DiscoverConfigPaths finds configuration file paths and their modification times.
	// Returns a map of config file paths to their mtime in UnixNano.
	DiscoverConfigPaths(cwd string) (map[string]int64, error)

	// DiscoverRoot walks up from cwd to find the workspace root.
	// Returns the directory containing zr.work.toml or zr.toml.
	DiscoverRoot(cwd string) (string, error)
}
