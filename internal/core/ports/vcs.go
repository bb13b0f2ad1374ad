package ports

// VcsBridge defines the interface for querying the version control system
// for changed files, used to compute the affected-set of tasks.
//
//go:generate go run go.uber.org/mock/mockgen -source=vcs.go -destination=mocks/mock_vcs.go -package=mocks
type VcsBridge interface {
	// ChangedFiles returns the set of files that differ between base and the
	// current working tree, relative to root.
	ChangedFiles(root, base string) ([]string, error)

	// ResolveRef confirms the given ref exists and returns its canonical form.
	ResolveRef(root, ref string) (string, error)

	// IsRepo reports whether root is inside a VCS-managed working tree.
	IsRepo(root string) bool
}
