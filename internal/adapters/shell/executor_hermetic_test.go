package shell_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"zr/internal/adapters/shell"
	"zr/internal/core/domain"
)

func TestExecutor_Execute_ToolPathOnly(t *testing.T) {
	executor := shell.NewExecutor(nullLogger{})

	toolDir := t.TempDir()
	cmdName := "my-tool"
	cmdPath := filepath.Join(toolDir, cmdName)
	content := "#!/bin/sh\necho success\n"
	//nolint:gosec // Test requires executable file
	err := os.WriteFile(cmdPath, []byte(content), 0o700)
	require.NoError(t, err)

	task := &domain.Task{
		Name:       domain.NewInternedString("test-tool-path"),
		Command:    []string{cmdName},
		WorkingDir: domain.NewInternedString(toolDir),
	}

	toolEnv := []string{"PATH=" + toolDir}

	var stdout bytes.Buffer
	_, err = executor.Execute(context.Background(), task, toolEnv, &stdout, &stdout)
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "success")
}
