package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zr/internal/adapters/logger"
	"zr/internal/core/ports"
)

func newTestLogger(t *testing.T) (ports.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	lg := logger.New()
	concrete, ok := lg.(*logger.Logger)
	require.True(t, ok)
	concrete.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Info("starting task", "task", "build", "attempt", 1)

	out := buf.String()
	assert.Contains(t, out, "starting task")
	assert.Contains(t, out, "task=build")
	assert.Contains(t, out, "attempt=1")
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Warn("cache miss", "fingerprint", "abc123")

	out := buf.String()
	assert.Contains(t, out, "! ")
	assert.Contains(t, out, "cache miss")
	assert.Contains(t, out, "fingerprint=abc123")
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{name: "plain error", err: errors.New("disk full"), msg: "write failed"},
		{name: "wrapped error", err: fmt.Errorf("outer: %w", errors.New("inner")), msg: "task failed"},
		{name: "empty message", err: errors.New("boom"), msg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)

			lg.Error(tt.err, tt.msg)

			out := buf.String()
			assert.Contains(t, out, "x ")
			assert.Contains(t, out, "Error: "+tt.err.Error())
		})
	}
}

func TestLogger_Error_FmtWrapChain(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "single wrap", err: fmt.Errorf("loading config: %w", errors.New("file not found"))},
		{name: "double wrap", err: fmt.Errorf("graph build: %w", fmt.Errorf("cycle detected: %w", errors.New("task a -> task b -> task a")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)

			lg.Error(tt.err, "operation failed")

			out := buf.String()
			assert.Contains(t, out, "operation failed")
			assert.Contains(t, out, "Error: "+tt.err.Error())
		})
	}
}

func TestLogger_Error_StdlibChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	base := errors.New("connection refused")
	wrapped := fmt.Errorf("dialing upstream: %w", base)

	lg.Error(wrapped, "request failed")

	out := buf.String()
	assert.Contains(t, out, "request failed")
	assert.Contains(t, out, "Error: "+wrapped.Error())
}

func TestLogger_Error_WithMetadata(t *testing.T) {
	tests := []struct {
		name string
		kv   []any
	}{
		{name: "no metadata"},
		{name: "single pair", kv: []any{"task", "build"}},
		{name: "multiple pairs", kv: []any{"task", "build", "attempt", 2}},
		{name: "bool value", kv: []any{"cached", true}},
		{name: "hex value", kv: []any{"fingerprint", "deadbeef"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)

			lg.Error(errors.New("failure"), "task errored", tt.kv...)

			out := buf.String()
			assert.Contains(t, out, "task errored")
			for i := 0; i+1 < len(tt.kv); i += 2 {
				key, _ := tt.kv[i].(string)
				assert.Contains(t, out, key+"=")
			}
		})
	}
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Error(nil, "no error here")

	out := buf.String()
	assert.Contains(t, out, "no error here")
	assert.NotContains(t, out, "Error:")
}

func TestLogger_SetJSON(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		lg, buf := newTestLogger(t)
		concrete := lg.(*logger.Logger)
		concrete.SetJSON(true)

		lg.Info("json mode message", "key", "value")

		out := buf.String()
		assert.Contains(t, out, `"msg":"json mode message"`)
		assert.Contains(t, out, `"key":"value"`)
	})

	t.Run("disabled", func(t *testing.T) {
		lg, buf := newTestLogger(t)
		concrete := lg.(*logger.Logger)
		concrete.SetJSON(true)
		concrete.SetJSON(false)

		lg.Info("pretty mode message", "key", "value")

		out := buf.String()
		assert.Contains(t, out, "pretty mode message")
		assert.Contains(t, out, "key=value")
		assert.NotContains(t, out, `"msg"`)
	})
}

func TestLogger_SetJSON_WithErrorChain(t *testing.T) {
	lg, buf := newTestLogger(t)
	concrete := lg.(*logger.Logger)
	concrete.SetJSON(true)

	wrapped := fmt.Errorf("outer: %w", errors.New("inner"))
	lg.Error(wrapped, "operation failed")

	out := buf.String()
	assert.Contains(t, out, `"msg":"operation failed"`)
	assert.Contains(t, out, wrapped.Error())
}

func TestLogger_FormatSwitching(t *testing.T) {
	lg, buf := newTestLogger(t)
	concrete := lg.(*logger.Logger)

	lg.Error(errors.New("pretty error"), "first")
	prettyOutput := buf.String()
	assert.Contains(t, prettyOutput, "x ")
	assert.Contains(t, prettyOutput, "Error: pretty error")

	buf.Reset()
	concrete.SetJSON(true)
	lg.Error(errors.New("json error"), "second")
	jsonOutput := buf.String()
	assert.Contains(t, jsonOutput, `"msg":"second"`)
	assert.Contains(t, jsonOutput, "json error")
	assert.NotContains(t, jsonOutput, "x ")
}

func TestLogger_SetOutput(t *testing.T) {
	lg := logger.New()
	concrete := lg.(*logger.Logger)

	first := &bytes.Buffer{}
	concrete.SetOutput(first)
	lg.Info("to first")
	assert.Contains(t, first.String(), "to first")

	second := &bytes.Buffer{}
	concrete.SetOutput(second)
	lg.Info("to second")
	assert.Contains(t, second.String(), "to second")
	assert.NotContains(t, first.String(), "to second")
}

func TestLogger_New(t *testing.T) {
	lg := logger.New()
	require.NotNil(t, lg)

	assert.NotPanics(t, func() {
		lg.Info("hello")
		lg.Warn("careful")
		lg.Debug("details")
		lg.Error(errors.New("oops"), "failed")
	})
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, buf := newTestLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			lg.Info("concurrent", "n", n)
		}(i)
	}
	wg.Wait()

	assert.True(t, strings.Count(buf.String(), "concurrent") > 0)
}
