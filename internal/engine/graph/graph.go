// Package graph builds and validates the task dependency graph: template
// materialization, matrix expansion, cycle detection, and the leveled
// execution order the scheduler consumes.
package graph

import (
	"iter"
	"slices"

	"zr/internal/core/domain"
	"go.trai.ch/zerr"
)

// Graph represents a dependency graph of concrete (post-expansion) tasks.
type Graph struct {
	tasks          map[domain.InternedString]domain.Task
	executionOrder []domain.InternedString
	levels         [][]domain.InternedString
	dependents     map[domain.InternedString][]domain.InternedString
	root           string
}

// New creates a new empty Graph.
func New() *Graph {
	return &Graph{
		tasks: make(map[domain.InternedString]domain.Task),
	}
}

// AddTask adds a concrete task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *domain.Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(domain.ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	g.tasks[t.Name] = *t
	return nil
}

// Validate checks for cycles using a DFS-based topological sort and computes
// the Kahn-leveled execution order. It populates executionOrder, levels and
// dependents if successful.
func (g *Graph) Validate() error {
	g.executionOrder = make([]domain.InternedString, 0, len(g.tasks))
	g.dependents = g.buildDependentsMap()
	visited := make(map[domain.InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []domain.InternedString

	var visit func(u domain.InternedString) error
	visit = func(u domain.InternedString) error {
		visited[u] = 1
		path = append(path, u)

		task, exists := g.tasks[u]
		if !exists {
			return zerr.With(domain.ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range allDeps(task) {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	sortedNames := g.getSortedTaskNames()

	for _, name := range sortedNames {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	g.levels = g.kahnLevels(sortedNames)

	return nil
}

// allDeps returns a task's parallel and serial dependencies together, since
// both must precede the task in topological order.
func allDeps(t domain.Task) []domain.InternedString {
	if len(t.SerialDependencies) == 0 {
		return t.Dependencies
	}
	deps := make([]domain.InternedString, 0, len(t.Dependencies)+len(t.SerialDependencies))
	deps = append(deps, t.Dependencies...)
	deps = append(deps, t.SerialDependencies...)
	return deps
}

// kahnLevels groups tasks into levels by in-degree, so that every task in
// level N depends only on tasks in levels < N. Tasks within a level can run
// concurrently. sortedNames seeds deterministic ordering within a level.
func (g *Graph) kahnLevels(sortedNames []domain.InternedString) [][]domain.InternedString {
	inDegree := make(map[domain.InternedString]int, len(g.tasks))
	for name, task := range g.tasks {
		inDegree[name] = len(allDeps(task))
	}

	remaining := len(g.tasks)
	var levels [][]domain.InternedString
	done := make(map[domain.InternedString]bool, len(g.tasks))

	for remaining > 0 {
		var level []domain.InternedString
		for _, name := range sortedNames {
			if done[name] {
				continue
			}
			if inDegree[name] == 0 {
				level = append(level, name)
			}
		}
		if len(level) == 0 {
			// Validate already rejected cycles; this should be unreachable.
			break
		}
		for _, name := range level {
			done[name] = true
			remaining--
		}
		for _, dependent := range g.levelSuccessors(level) {
			inDegree[dependent]--
		}
		levels = append(levels, level)
	}

	return levels
}

// levelSuccessors returns the deduplicated set of tasks that depend on any
// task in the given level.
func (g *Graph) levelSuccessors(level []domain.InternedString) []domain.InternedString {
	seen := make(map[domain.InternedString]bool)
	var out []domain.InternedString
	for _, name := range level {
		for _, dependent := range g.dependents[name] {
			if !seen[dependent] {
				seen[dependent] = true
				out = append(out, dependent)
			}
		}
	}
	return out
}

// buildDependentsMap creates a reverse adjacency list (dependents map).
func (g *Graph) buildDependentsMap() map[domain.InternedString][]domain.InternedString {
	dependents := make(map[domain.InternedString][]domain.InternedString)
	for taskName := range g.tasks {
		task := g.tasks[taskName]
		for _, dep := range allDeps(task) {
			dependents[dep] = append(dependents[dep], task.Name)
		}
	}
	return dependents
}

// getSortedTaskNames returns all task names sorted alphabetically, so
// disconnected components and same-level ties resolve deterministically.
func (g *Graph) getSortedTaskNames() []domain.InternedString {
	sortedNames := make([]domain.InternedString, 0, len(g.tasks))
	for name := range g.tasks {
		sortedNames = append(sortedNames, name)
	}
	slices.SortFunc(sortedNames, func(a, b domain.InternedString) int {
		if a.String() < b.String() {
			return -1
		}
		if a.String() > b.String() {
			return 1
		}
		return 0
	})
	return sortedNames
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []domain.InternedString, dep domain.InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(domain.ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields tasks in topological execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[domain.Task] {
	return func(yield func(domain.Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Levels returns tasks grouped into Kahn levels: every task in level N
// depends only on tasks in levels before N, so a level can be dispatched to
// the scheduler as one concurrent batch.
func (g *Graph) Levels() [][]domain.Task {
	out := make([][]domain.Task, len(g.levels))
	for i, level := range g.levels {
		tasks := make([]domain.Task, len(level))
		for j, name := range level {
			tasks[j] = g.tasks[name]
		}
		out[i] = tasks
	}
	return out
}

// Dependents returns the tasks that directly depend on the given task.
func (g *Graph) Dependents(task domain.InternedString) []domain.InternedString {
	return g.dependents[task]
}

// DependentsClosure returns the transitive set of tasks that depend on the
// given task, directly or indirectly. Used by the affected-set computation
// to expand "include dependents".
func (g *Graph) DependentsClosure(task domain.InternedString) []domain.InternedString {
	seen := make(map[domain.InternedString]bool)
	var walk func(domain.InternedString)
	walk = func(t domain.InternedString) {
		for _, dep := range g.dependents[t] {
			if !seen[dep] {
				seen[dep] = true
				walk(dep)
			}
		}
	}
	walk(task)
	return mapKeysSorted(seen)
}

// DependenciesClosure returns the transitive set of tasks that the given
// task depends on, directly or indirectly. Used by the affected-set
// computation to expand "include dependencies".
func (g *Graph) DependenciesClosure(task domain.InternedString) []domain.InternedString {
	seen := make(map[domain.InternedString]bool)
	var walk func(domain.InternedString)
	walk = func(t domain.InternedString) {
		node, ok := g.tasks[t]
		if !ok {
			return
		}
		for _, dep := range allDeps(node) {
			if !seen[dep] {
				seen[dep] = true
				walk(dep)
			}
		}
	}
	walk(task)
	return mapKeysSorted(seen)
}

// Subset builds a new, independently validated Graph containing exactly the
// given task names plus the transitive closure of their dependencies, so the
// returned graph can be scheduled on its own (e.g. one workflow stage, or an
// affected-set run) without pulling in unrelated tasks.
func (g *Graph) Subset(names []domain.InternedString) (*Graph, error) {
	seen := make(map[domain.InternedString]bool, len(names))
	for _, name := range names {
		seen[name] = true
		for _, dep := range g.DependenciesClosure(name) {
			seen[dep] = true
		}
	}

	out := New()
	out.SetRoot(g.root)
	for name := range seen {
		task, ok := g.tasks[name]
		if !ok {
			return nil, zerr.With(domain.ErrMissingDependency, "dependency", name.String())
		}
		if err := out.AddTask(&task); err != nil {
			return nil, err
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func mapKeysSorted(m map[domain.InternedString]bool) []domain.InternedString {
	out := make([]domain.InternedString, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b domain.InternedString) int {
		if a.String() < b.String() {
			return -1
		}
		if a.String() > b.String() {
			return 1
		}
		return 0
	})
	return out
}

// TaskCount returns the total number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// GetTask retrieves a task by its name.
func (g *Graph) GetTask(name domain.InternedString) (domain.Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Root returns the root directory of the build.
func (g *Graph) Root() string {
	return g.root
}

// SetRoot sets the root directory of the build.
func (g *Graph) SetRoot(path string) {
	g.root = path
}
