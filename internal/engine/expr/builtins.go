package expr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// callBuiltin dispatches a builtin function call by its dotted name.
func callBuiltin(name string, args []Value, ctx *evalContext) (Value, error) {
	switch name {
	case "file.exists":
		return fileExists(args)
	case "file.changed":
		return fileChanged(args)
	case "file.newer":
		return fileNewer(args)
	case "file.hash":
		return fileHash(args)
	case "semver.gt":
		return semverGt(args)
	case "shell":
		return shellCall(args, ctx)
	default:
		return Value{}, newSyntaxError("unknown function " + name)
	}
}

func requireArgs(name string, args []Value, n int) error {
	if len(args) != n {
		return newSyntaxError(name + " expects " + strconv.Itoa(n) + " argument(s)")
	}
	return nil
}

// fileExists reports whether the given path exists on disk.
func fileExists(args []Value) (Value, error) {
	if err := requireArgs("file.exists", args, 1); err != nil {
		return Value{}, err
	}
	_, err := os.Stat(args[0].Str())
	return Bool(err == nil), nil
}

// fileChanged reports whether the given path's modification time is after
// the process start time, a coarse "was this touched during this run"
// check with no history of prior runs to compare against.
func fileChanged(args []Value) (Value, error) {
	if err := requireArgs("file.changed", args, 1); err != nil {
		return Value{}, err
	}
	info, err := os.Stat(args[0].Str())
	if err != nil {
		return Bool(false), nil
	}
	return Bool(info.ModTime().After(processStart)), nil
}

// fileNewer reports whether path a was modified more recently than path b.
func fileNewer(args []Value) (Value, error) {
	if err := requireArgs("file.newer", args, 2); err != nil {
		return Value{}, err
	}
	a, err := os.Stat(args[0].Str())
	if err != nil {
		return Bool(false), nil
	}
	b, err := os.Stat(args[1].Str())
	if err != nil {
		return Bool(true), nil
	}
	return Bool(a.ModTime().After(b.ModTime())), nil
}

// fileHash returns the hex-encoded SHA-256 digest of the file's contents,
// or an empty string if the file cannot be read.
func fileHash(args []Value) (Value, error) {
	if err := requireArgs("file.hash", args, 1); err != nil {
		return Value{}, err
	}

	f, err := os.Open(args[0].Str())
	if err != nil {
		return String(""), nil
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return String(""), nil
	}

	return String(hex.EncodeToString(h.Sum(nil))), nil
}

// semverGt reports whether version a is strictly greater than version b,
// comparing dot-separated numeric components left to right. A missing or
// shorter component is treated as 0.
func semverGt(args []Value) (Value, error) {
	if err := requireArgs("semver.gt", args, 2); err != nil {
		return Value{}, err
	}

	a := splitVersion(args[0].Str())
	b := splitVersion(args[1].Str())

	for i := 0; i < len(a) || i < len(b); i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			return Bool(av > bv), nil
		}
	}

	return Bool(false), nil
}

func splitVersion(s string) []int {
	s = strings.TrimPrefix(s, "v")
	parts := strings.Split(s, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, _ := strconv.Atoi(strings.TrimSpace(p))
		nums[i] = n
	}
	return nums
}

// shellCall runs cmd through the platform shell and returns its trimmed
// stdout. Results are memoized per evaluation pass (one EvalCondition or
// one Interpolate call), so a command repeated within that pass runs only
// once; separate calls do not share results.
func shellCall(args []Value, ctx *evalContext) (Value, error) {
	if err := requireArgs("shell", args, 1); err != nil {
		return Value{}, err
	}

	cmd := args[0].Str()
	if cached, ok := ctx.shellCache[cmd]; ok {
		return cached, nil
	}

	out, err := ctx.shellRunner(cmd)
	if err != nil {
		// Per the open contract, a failing shell(...) call evaluates to
		// empty string rather than aborting the expression.
		result := String("")
		ctx.shellCache[cmd] = result
		return result, nil
	}

	result := String(strings.TrimSpace(out))
	ctx.shellCache[cmd] = result
	return result, nil
}

func runShell(cmd string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var c *exec.Cmd
	if runtime.GOOS == "windows" {
		c = exec.CommandContext(ctx, "cmd.exe", "/C", cmd)
	} else {
		c = exec.CommandContext(ctx, "sh", "-c", cmd)
	}

	out, err := c.Output()
	return string(out), err
}

var processStart = time.Now()
