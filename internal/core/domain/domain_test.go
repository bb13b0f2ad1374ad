package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"zr/internal/core/domain"
)

func TestTask_HasCommand(t *testing.T) {
	t.Run("no command", func(t *testing.T) {
		task := &domain.Task{Name: domain.NewInternedString("noop")}
		assert.False(t, task.HasCommand())
	})

	t.Run("with command", func(t *testing.T) {
		task := &domain.Task{
			Name:    domain.NewInternedString("build"),
			Command: []string{"go", "build", "./..."},
		}
		assert.True(t, task.HasCommand())
	})
}

func TestCacheSpec_IsEnabled(t *testing.T) {
	t.Run("unset defaults to enabled", func(t *testing.T) {
		var spec domain.CacheSpec
		assert.True(t, spec.IsEnabled())
	})

	t.Run("explicit false", func(t *testing.T) {
		disabled := false
		spec := domain.CacheSpec{Enabled: &disabled}
		assert.False(t, spec.IsEnabled())
	})

	t.Run("explicit true", func(t *testing.T) {
		enabled := true
		spec := domain.CacheSpec{Enabled: &enabled}
		assert.True(t, spec.IsEnabled())
	})
}

func TestWorkflow_StageByName(t *testing.T) {
	wf := domain.Workflow{
		Name: "release",
		Stages: []domain.Stage{
			{Name: "build"},
			{Name: "deploy", RequireGate: true},
		},
	}

	stage, ok := wf.StageByName("deploy")
	assert.True(t, ok)
	assert.True(t, stage.RequireGate)

	_, ok = wf.StageByName("missing")
	assert.False(t, ok)
}

func TestRunRecord_Duration(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := domain.RunRecord{
		StartedAt: start,
		EndedAt:   start.Add(3 * time.Second),
	}
	assert.Equal(t, 3*time.Second, rec.Duration())
}
