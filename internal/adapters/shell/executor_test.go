package shell_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zr/internal/adapters/shell"
	"zr/internal/core/domain"
)

type nullLogger struct{}

func (nullLogger) Info(string, ...any)          {}
func (nullLogger) Warn(string, ...any)          {}
func (nullLogger) Error(error, string, ...any)  {}
func (nullLogger) Debug(string, ...any)         {}

func newExecutor() *shell.Executor {
	return shell.NewExecutor(nullLogger{})
}

func TestExecutor_Execute_MultiLineOutput(t *testing.T) {
	executor := newExecutor()
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:       domain.NewInternedString("test-task"),
		Command:    []string{"echo line1; echo line2"},
		WorkingDir: domain.NewInternedString(tmpDir),
	}

	var stdout bytes.Buffer
	result, err := executor.Execute(context.Background(), task, nil, &stdout, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, stdout.String(), "line1")
	assert.Contains(t, stdout.String(), "line2")
}

func TestExecutor_Execute_EnvironmentVariables(t *testing.T) {
	executor := newExecutor()
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:    domain.NewInternedString("test-env-task"),
		Command: []string{"echo $MY_TEST_VAR"},
		Environment: map[string]string{
			"MY_TEST_VAR": "test-value-123",
		},
		WorkingDir: domain.NewInternedString(tmpDir),
	}

	var stdout bytes.Buffer
	_, err := executor.Execute(context.Background(), task, nil, &stdout, io.Discard)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "test-value-123")
}

func TestExecutor_Execute_CommandFailure(t *testing.T) {
	executor := newExecutor()
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:       domain.NewInternedString("test-fail"),
		Command:    []string{"exit 42"},
		WorkingDir: domain.NewInternedString(tmpDir),
	}

	result, err := executor.Execute(context.Background(), task, nil, io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 42, result.ExitCode)
}

func TestExecutor_Execute_EmptyCommand(t *testing.T) {
	executor := newExecutor()
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:       domain.NewInternedString("test-empty"),
		Command:    []string{},
		WorkingDir: domain.NewInternedString(tmpDir),
	}

	result, err := executor.Execute(context.Background(), task, nil, io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Zero(t, result)
}

func TestExecutor_Execute_ExtraEnv(t *testing.T) {
	executor := newExecutor()
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:       domain.NewInternedString("test-extra-env"),
		Command:    []string{"echo $EXTRA_VAR"},
		WorkingDir: domain.NewInternedString(tmpDir),
	}

	extraEnv := []string{"EXTRA_VAR=extra-value"}
	var stdout bytes.Buffer
	_, err := executor.Execute(context.Background(), task, extraEnv, &stdout, io.Discard)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "extra-value")
}

func TestExecutor_Execute_TimeoutEscalation(t *testing.T) {
	executor := newExecutor()
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:       domain.NewInternedString("test-timeout"),
		Command:    []string{"sleep 5"},
		WorkingDir: domain.NewInternedString(tmpDir),
		Timeout:    50 * time.Millisecond,
	}

	result, err := executor.Execute(context.Background(), task, nil, io.Discard, io.Discard)
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
}
