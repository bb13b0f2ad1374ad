package expr

import (
	"runtime"
	"strconv"
	"strings"

	"zr/internal/core/ports"
)

// evalContext carries the evaluation-time state: the caller's Context plus
// a per-pass shell memoization cache, per spec's "memoize shell(...) within
// a single evaluation pass only" rule.
type evalContext struct {
	vars        ports.Context
	shellCache  map[string]Value
	shellRunner func(cmd string) (string, error)
}

func newEvalContext(vars ports.Context) *evalContext {
	return &evalContext{
		vars:        vars,
		shellCache:  make(map[string]Value),
		shellRunner: runShell,
	}
}

func resolveIdent(path string, ctx *evalContext) (Value, error) {
	switch {
	case path == "platform.os":
		return String(runtime.GOOS), nil
	case path == "platform.arch":
		return String(runtime.GOARCH), nil
	case path == "platform.is_linux":
		return Bool(runtime.GOOS == "linux"), nil
	case path == "platform.is_macos":
		return Bool(runtime.GOOS == "darwin"), nil
	case path == "platform.is_windows":
		return Bool(runtime.GOOS == "windows"), nil
	case path == "runtime.task":
		return String(ctx.vars.TaskName), nil
	case path == "runtime.hash":
		return String(ctx.vars.Fingerprint), nil
	case path == "runtime.iteration":
		return Number(float64(ctx.vars.Iteration)), nil
	case strings.HasPrefix(path, "env."):
		name := strings.TrimPrefix(path, "env.")
		return String(ctx.vars.Env[name]), nil
	default:
		return Value{}, newSyntaxError("unknown identifier " + path)
	}
}

// parseNumber converts a lexed numeric literal to a float64.
func parseNumber(text string) (float64, error) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, newSyntaxError("invalid number literal " + text)
	}
	return n, nil
}
