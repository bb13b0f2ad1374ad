package graph

import (
	"fmt"
	"slices"
	"strings"

	"zr/internal/core/domain"
	"go.trai.ch/zerr"
)

// Templates maps a template name to the task declaration it expands, for
// tasks that reference it via Task.Template.
type Templates map[string]domain.Task

// Build materializes a set of declared tasks into a validated Graph: it
// resolves template references, expands matrix axes into one concrete task
// per coordinate, adds every resulting task, and runs Validate.
//
// Template materialization happens before matrix expansion: a task's
// template supplies the base command/environment/cache spec, and the
// task's own matrix (if any) multiplies the materialized result.
func Build(tasks []domain.Task, templates Templates) (*Graph, error) {
	g := New()

	for _, t := range tasks {
		materialized, err := materialize(t, templates)
		if err != nil {
			return nil, err
		}

		expanded, err := expandMatrix(materialized)
		if err != nil {
			return nil, err
		}

		for i := range expanded {
			if err := g.AddTask(&expanded[i]); err != nil {
				return nil, err
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}

// materialize applies a task's Template reference, overlaying the
// template's fields under the task's own non-zero fields.
func materialize(t domain.Task, templates Templates) (domain.Task, error) {
	if t.Template == "" {
		return t, nil
	}

	base, ok := templates[t.Template]
	if !ok {
		return domain.Task{}, zerr.With(domain.ErrTemplateNotFound, "template", t.Template)
	}

	merged := base
	merged.Name = t.Name
	merged.Description = firstNonEmpty(t.Description, base.Description)
	if len(t.Command) > 0 {
		merged.Command = t.Command
	}
	if t.WorkingDir.String() != "" {
		merged.WorkingDir = t.WorkingDir
	}
	merged.Dependencies = mergeInterned(base.Dependencies, t.Dependencies)
	merged.SerialDependencies = mergeInterned(base.SerialDependencies, t.SerialDependencies)
	merged.Environment = mergeStringMap(base.Environment, t.Environment)
	if t.Timeout != 0 {
		merged.Timeout = t.Timeout
	}
	if t.Retry.Count != 0 {
		merged.Retry = t.Retry
	}
	merged.AllowFailure = t.AllowFailure || base.AllowFailure
	merged.Cache = mergeCacheSpec(base.Cache, t.Cache)
	if t.Resources != (domain.ResourceCaps{}) {
		merged.Resources = t.Resources
	}
	merged.Tags = append(append([]string{}, base.Tags...), t.Tags...)
	merged.Tools = mergeStringMap(base.Tools, t.Tools)
	merged.Condition = firstNonEmpty(t.Condition, base.Condition)
	if t.Matrix != nil {
		merged.Matrix = t.Matrix
	}
	merged.Template = ""

	return resolveTemplateParams(merged, t.TemplateParams), nil
}

// resolveTemplateParams substitutes {{param}} placeholders in the command
// and working directory with values from params.
func resolveTemplateParams(t domain.Task, params map[string]string) domain.Task {
	if len(params) == 0 {
		return t
	}
	cmd := make([]string, len(t.Command))
	for i, arg := range t.Command {
		cmd[i] = substitute(arg, params)
	}
	t.Command = cmd
	t.WorkingDir = domain.NewInternedString(substitute(t.WorkingDir.String(), params))
	return t
}

func substitute(s string, params map[string]string) string {
	for k, v := range params {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// expandMatrix turns a task with a non-empty Matrix into one concrete task
// per Cartesian coordinate, with deterministic name suffixes, placeholder
// substitution in Command/WorkingDir, and the coordinate's axis=value pairs
// merged into Environment.
func expandMatrix(t domain.Task) ([]domain.Task, error) {
	if len(t.Matrix) == 0 {
		return []domain.Task{t}, nil
	}

	axes := make([]string, 0, len(t.Matrix))
	for axis := range t.Matrix {
		axes = append(axes, axis)
	}
	slices.Sort(axes)

	for _, axis := range axes {
		if len(t.Matrix[axis]) == 0 {
			return nil, zerr.With(domain.ErrMatrixAxisEmpty, "axis", axis)
		}
	}

	coordinates := cartesian(axes, t.Matrix)
	out := make([]domain.Task, 0, len(coordinates))
	for _, coord := range coordinates {
		clone := t
		clone.Matrix = nil
		clone.MatrixCoordinate = coord
		clone.Name = domain.NewInternedString(t.Name.String() + matrixSuffix(axes, coord))

		cmd := make([]string, len(t.Command))
		for i, arg := range t.Command {
			cmd[i] = substitute(arg, coord)
		}
		clone.Command = cmd
		clone.WorkingDir = domain.NewInternedString(substitute(t.WorkingDir.String(), coord))
		clone.Environment = mergeStringMap(t.Environment, coord)

		out = append(out, clone)
	}
	return out, nil
}

// cartesian enumerates every axis->value assignment across the given axes,
// iterating in axes order so results are deterministic.
func cartesian(axes []string, matrix map[string][]string) []map[string]string {
	result := []map[string]string{{}}
	for _, axis := range axes {
		values := matrix[axis]
		next := make([]map[string]string, 0, len(result)*len(values))
		for _, partial := range result {
			for _, v := range values {
				coord := make(map[string]string, len(partial)+1)
				for k, pv := range partial {
					coord[k] = pv
				}
				coord[axis] = v
				next = append(next, coord)
			}
		}
		result = next
	}
	return result
}

// matrixSuffix builds a stable "[axis=value,axis2=value2]" name suffix.
func matrixSuffix(axes []string, coord map[string]string) string {
	parts := make([]string, len(axes))
	for i, axis := range axes {
		parts[i] = fmt.Sprintf("%s=%s", axis, coord[axis])
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func mergeInterned(base, overlay []domain.InternedString) []domain.InternedString {
	if len(overlay) == 0 {
		return base
	}
	return overlay
}

func mergeStringMap(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
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

func mergeCacheSpec(base, overlay domain.CacheSpec) domain.CacheSpec {
	merged := base
	if overlay.Enabled != nil {
		merged.Enabled = overlay.Enabled
	}
	if len(overlay.Inputs) > 0 {
		merged.Inputs = overlay.Inputs
	}
	if len(overlay.Outputs) > 0 {
		merged.Outputs = overlay.Outputs
	}
	if overlay.Key != "" {
		merged.Key = overlay.Key
	}
	return merged
}
