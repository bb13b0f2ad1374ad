package config

import "fmt"

// WorkspaceFile represents the structure of the zr.work.toml configuration file.
type WorkspaceFile struct {
	Version string            `toml:"version"`
	Root    string            `toml:"root"`
	Tools   map[string]string `toml:"tools"`
	Members []string          `toml:"members"`
	Cache   *CacheDefaultsDTO `toml:"cache"`
}

// ProjectFile represents the structure of the zr.toml configuration file,
// whether loaded standalone or as a workspace member.
type ProjectFile struct {
	Version   string                  `toml:"version"`
	Project   string                  `toml:"project"`
	Root      string                  `toml:"root"`
	Tools     map[string]string       `toml:"tools"`
	Tasks     map[string]*TaskDTO     `toml:"tasks"`
	Templates map[string]*TaskDTO     `toml:"templates"`
	Workflows map[string]*WorkflowDTO `toml:"workflows"`
	Cache     *CacheDefaultsDTO       `toml:"cache"`
	Profiles  map[string]*ProfileDTO  `toml:"profiles"`
}

// CacheDefaultsDTO declares the workspace- or project-wide cache kill-switch.
type CacheDefaultsDTO struct {
	Enabled *bool `toml:"enabled"`
}

// ProfileDTO overlays environment and per-task overrides onto the base
// project when selected via --profile.
type ProfileDTO struct {
	Environment map[string]string  `toml:"env"`
	Tasks       map[string]*TaskDTO `toml:"tasks"`
}

// RetryDTO configures a task's retry policy.
type RetryDTO struct {
	Count   int    `toml:"count"`
	Backoff string `toml:"backoff"`
	Base    string `toml:"base"`
}

// TaskCacheDTO configures a task's cache participation. It accepts either a
// bare boolean (`cache = true`, a shorthand for "enabled with defaulted
// inputs/outputs") or a full table (`[tasks.<name>.cache]`).
type TaskCacheDTO struct {
	Enabled *bool
	Inputs  []string
	Outputs []string
	Key     string
}

// UnmarshalTOML implements go-toml/v2's Unmarshaler hook, which hands back
// the already-decoded scalar or table rather than raw bytes.
func (c *TaskCacheDTO) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case bool:
		c.Enabled = &v
		return nil
	case map[string]any:
		if raw, ok := v["enabled"].(bool); ok {
			c.Enabled = &raw
		}
		c.Inputs = toStringSlice(v["inputs"])
		c.Outputs = toStringSlice(v["outputs"])
		if raw, ok := v["key"].(string); ok {
			c.Key = raw
		}
		return nil
	default:
		return fmt.Errorf("cache must be a boolean or a table, got %T", value)
	}
}

func toStringSlice(value any) []string {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// TaskDTO represents a single task definition in the configuration.
type TaskDTO struct {
	Description     string              `toml:"description"`
	Cmd             string              `toml:"cmd"`
	WorkingDir      string              `toml:"cwd"`
	DependsOn       []string            `toml:"deps"`
	DependsOnSerial []string            `toml:"deps_serial"`
	Environment     map[string]string   `toml:"env"`
	Timeout         string              `toml:"timeout"`
	Retry           *RetryDTO           `toml:"retry"`
	AllowFailure    bool                `toml:"allow_failure"`
	Cache           *TaskCacheDTO       `toml:"cache"`
	MaxConcurrent   int                 `toml:"max_concurrent"`
	MaxCPUPercent   int                 `toml:"max_cpu"`
	MaxMemoryBytes  int64               `toml:"max_memory"`
	Tags            []string            `toml:"tags"`
	Toolchain       []string            `toml:"toolchain"`
	Condition       string              `toml:"condition"`
	Matrix          map[string][]string `toml:"matrix"`
	Template        string              `toml:"template"`
	TemplateParams  map[string]string   `toml:"template_params"`
}

// StageDTO is a single stage of a WorkflowDTO.
type StageDTO struct {
	Name        string   `toml:"name"`
	Tasks       []string `toml:"tasks"`
	RequireGate bool     `toml:"approval"`
	Condition   string   `toml:"condition"`
	FailFast    bool     `toml:"fail_fast"`
	OnFailure   string   `toml:"on_failure"`
}

// WorkflowDTO is a named, ordered sequence of stages.
type WorkflowDTO struct {
	Stages []StageDTO `toml:"stages"`
}
