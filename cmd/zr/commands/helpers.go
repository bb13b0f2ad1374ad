package commands

import (
	"fmt"
	"io"
	"sort"

	"zr/internal/engine/scheduler"
)

func printTaskResults(w io.Writer, tasks map[string]*scheduler.TaskResult) {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tr := tasks[name]
		_, _ = fmt.Fprintf(w, "%-24s %-10s %s\n", name, tr.Status, tr.Duration)
	}
}
