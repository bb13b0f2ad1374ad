package domain

// Member is a single workspace member: a sub-package rooted at Path with
// its own task overlay, namespaced as "<Name>:<task>" once merged into the
// workspace-wide graph.
type Member struct {
	Name string
	Path string
	// Tasks holds the member's own task declarations before namespacing
	// and merge with the workspace root.
	Tasks []Task
}
