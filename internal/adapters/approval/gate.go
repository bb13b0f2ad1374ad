// Package approval resolves workflow stage approval gates: the
// non-interactive APPROVE_ALL=1 environment override, or an interactive
// y/n prompt on the process's stdin.
package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Gate implements ports.ApprovalGate against the process environment and an
// interactive input stream.
type Gate struct {
	in  io.Reader
	out io.Writer
}

// New creates a Gate reading from stdin and writing prompts to stdout.
func New() *Gate {
	return &Gate{in: os.Stdin, out: os.Stdout}
}

// NewWithStreams creates a Gate reading and writing the given streams,
// for testing and for callers piping the prompt elsewhere.
func NewWithStreams(in io.Reader, out io.Writer) *Gate {
	return &Gate{in: in, out: out}
}

// Await satisfies the gate immediately if APPROVE_ALL=1 is set; otherwise it
// prompts on the configured input stream and blocks for a line of input.
func (g *Gate) Await(ctx context.Context, stageName string) (bool, error) {
	if os.Getenv("APPROVE_ALL") == "1" {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(g.out, "stage %q requires approval, proceed? [y/N] ", stageName)

	type answer struct {
		ok  bool
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		scanner := bufio.NewScanner(g.in)
		if !scanner.Scan() {
			ch <- answer{false, scanner.Err()}
			return
		}
		reply := strings.ToLower(strings.TrimSpace(scanner.Text()))
		ch <- answer{reply == "y" || reply == "yes", nil}
	}()

	select {
	case a := <-ch:
		return a.ok, a.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
