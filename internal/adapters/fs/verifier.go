package fs

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"zr/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier provides functionality to verify that a task's declared output
// globs match at least one path.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyOutputs checks that every output glob matches at least one path
// under root.
func (v *Verifier) VerifyOutputs(root string, outputs []string) (bool, error) {
	for _, output := range outputs {
		matches, err := doublestar.Glob(os.DirFS(root), filepath.ToSlash(output))
		if err != nil {
			return false, zerr.With(zerr.Wrap(err, "invalid output glob"), "pattern", output)
		}
		if len(matches) == 0 {
			return false, nil
		}
	}
	return true, nil
}
