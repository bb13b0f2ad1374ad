package approval_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zr/internal/adapters/approval"
)

func TestGate_Await_ApproveAllEnv(t *testing.T) {
	t.Setenv("APPROVE_ALL", "1")

	g := approval.New()
	ok, err := g.Await(context.Background(), "deploy")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_Await_InteractiveYes(t *testing.T) {
	t.Setenv("APPROVE_ALL", "")

	g := approval.NewWithStreams(strings.NewReader("y\n"), &bytes.Buffer{})
	ok, err := g.Await(context.Background(), "deploy")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_Await_InteractiveNo(t *testing.T) {
	t.Setenv("APPROVE_ALL", "")

	g := approval.NewWithStreams(strings.NewReader("n\n"), &bytes.Buffer{})
	ok, err := g.Await(context.Background(), "deploy")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGate_Await_ContextCancelled(t *testing.T) {
	t.Setenv("APPROVE_ALL", "")

	g := approval.NewWithStreams(strings.NewReader(""), &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := g.Await(ctx, "deploy")
	require.Error(t, err)
	assert.False(t, ok)
}
