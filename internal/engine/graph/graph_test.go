package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zr/internal/core/domain"
	"zr/internal/engine/graph"
)

func TestGraph_Cycle(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*graph.Graph)
		wantErr     bool
		errContains string
	}{
		{
			name: "Simple Cycle A->A",
			setup: func(g *graph.Graph) {
				tA := &domain.Task{
					Name:         domain.NewInternedString("A"),
					Dependencies: []domain.InternedString{domain.NewInternedString("A")},
				}
				_ = g.AddTask(tA)
			},
			wantErr:     true,
			errContains: "cycle detected",
		},
		{
			name: "Two Node Cycle A->B->A",
			setup: func(g *graph.Graph) {
				tA := &domain.Task{
					Name:         domain.NewInternedString("A"),
					Dependencies: []domain.InternedString{domain.NewInternedString("B")},
				}
				tB := &domain.Task{
					Name:         domain.NewInternedString("B"),
					Dependencies: []domain.InternedString{domain.NewInternedString("A")},
				}
				_ = g.AddTask(tA)
				_ = g.AddTask(tB)
			},
			wantErr:     true,
			errContains: "cycle detected",
		},
		{
			name: "No Cycle A->B->C",
			setup: func(g *graph.Graph) {
				tA := &domain.Task{
					Name:         domain.NewInternedString("A"),
					Dependencies: []domain.InternedString{domain.NewInternedString("B")},
				}
				tB := &domain.Task{
					Name:         domain.NewInternedString("B"),
					Dependencies: []domain.InternedString{domain.NewInternedString("C")},
				}
				tC := &domain.Task{Name: domain.NewInternedString("C")}
				_ = g.AddTask(tA)
				_ = g.AddTask(tB)
				_ = g.AddTask(tC)
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			tt.setup(g)
			err := g.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGraph_Levels(t *testing.T) {
	// A -> B, C; B -> D; C -> D
	g := graph.New()
	tA := &domain.Task{
		Name:         domain.NewInternedString("A"),
		Dependencies: []domain.InternedString{domain.NewInternedString("B"), domain.NewInternedString("C")},
	}
	tB := &domain.Task{
		Name:         domain.NewInternedString("B"),
		Dependencies: []domain.InternedString{domain.NewInternedString("D")},
	}
	tC := &domain.Task{
		Name:         domain.NewInternedString("C"),
		Dependencies: []domain.InternedString{domain.NewInternedString("D")},
	}
	tD := &domain.Task{Name: domain.NewInternedString("D")}

	require.NoError(t, g.AddTask(tA))
	require.NoError(t, g.AddTask(tB))
	require.NoError(t, g.AddTask(tC))
	require.NoError(t, g.AddTask(tD))
	require.NoError(t, g.Validate())

	levels := g.Levels()
	require.Len(t, levels, 3)
	assert.Equal(t, "D", levels[0][0].Name.String())

	level1Names := []string{levels[1][0].Name.String(), levels[1][1].Name.String()}
	assert.ElementsMatch(t, []string{"B", "C"}, level1Names)
	assert.Equal(t, "A", levels[2][0].Name.String())
}

func TestGraph_DependentsClosure(t *testing.T) {
	g := graph.New()
	tA := &domain.Task{Name: domain.NewInternedString("A")}
	tB := &domain.Task{Name: domain.NewInternedString("B"), Dependencies: []domain.InternedString{domain.NewInternedString("A")}}
	tC := &domain.Task{Name: domain.NewInternedString("C"), Dependencies: []domain.InternedString{domain.NewInternedString("B")}}

	require.NoError(t, g.AddTask(tA))
	require.NoError(t, g.AddTask(tB))
	require.NoError(t, g.AddTask(tC))
	require.NoError(t, g.Validate())

	closure := g.DependentsClosure(domain.NewInternedString("A"))
	var names []string
	for _, n := range closure {
		names = append(names, n.String())
	}
	assert.ElementsMatch(t, []string{"B", "C"}, names)
}

func TestGraph_Subset(t *testing.T) {
	// A -> B -> C; D is unrelated.
	g := graph.New()
	g.SetRoot("/repo")
	tA := &domain.Task{Name: domain.NewInternedString("A"), Dependencies: []domain.InternedString{domain.NewInternedString("B")}}
	tB := &domain.Task{Name: domain.NewInternedString("B"), Dependencies: []domain.InternedString{domain.NewInternedString("C")}}
	tC := &domain.Task{Name: domain.NewInternedString("C")}
	tD := &domain.Task{Name: domain.NewInternedString("D")}

	require.NoError(t, g.AddTask(tA))
	require.NoError(t, g.AddTask(tB))
	require.NoError(t, g.AddTask(tC))
	require.NoError(t, g.AddTask(tD))
	require.NoError(t, g.Validate())

	sub, err := g.Subset([]domain.InternedString{domain.NewInternedString("A")})
	require.NoError(t, err)
	assert.Equal(t, 3, sub.TaskCount())
	assert.Equal(t, "/repo", sub.Root())
	_, ok := sub.GetTask(domain.NewInternedString("D"))
	assert.False(t, ok)
}

func TestBuild_MatrixExpansion(t *testing.T) {
	tasks := []domain.Task{
		{
			Name:    domain.NewInternedString("test"),
			Command: []string{"go", "test", "./...", "{{os}}"},
			Matrix: map[string][]string{
				"os": {"linux", "darwin"},
			},
		},
	}

	g, err := graph.Build(tasks, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, g.TaskCount())

	linux, ok := g.GetTask(domain.NewInternedString("test[os=linux]"))
	require.True(t, ok)
	assert.Equal(t, []string{"go", "test", "./...", "linux"}, linux.Command)
}

func TestBuild_TemplateMaterialization(t *testing.T) {
	templates := graph.Templates{
		"go-build": {
			Command: []string{"go", "build", "{{pkg}}"},
		},
	}
	tasks := []domain.Task{
		{
			Name:           domain.NewInternedString("build-cli"),
			Template:       "go-build",
			TemplateParams: map[string]string{"pkg": "./cmd/zr"},
		},
	}

	g, err := graph.Build(tasks, templates)
	require.NoError(t, err)
	task, ok := g.GetTask(domain.NewInternedString("build-cli"))
	require.True(t, ok)
	assert.Equal(t, []string{"go", "build", "./cmd/zr"}, task.Command)
}
