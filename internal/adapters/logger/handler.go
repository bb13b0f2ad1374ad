// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	ansiReset  = "\x1b[0m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiMist   = "\x1b[90m"
)

// PrettyHandler is a custom slog.Handler that produces human-readable,
// colored text output, one line per record.
type PrettyHandler struct {
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	return &PrettyHandler{
		w:     w,
		level: levelVar,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var prefix, color string

	switch r.Level {
	case slog.LevelWarn:
		prefix, color = "! ", ansiYellow
	case slog.LevelError:
		prefix, color = "x ", ansiRed
	case slog.LevelDebug:
		prefix, color = "  ", ansiMist
	default:
		prefix, color = "  ", ""
	}

	msg := prefix + r.Message

	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		attrParts = append(attrParts, attr.Key+"="+attr.Value.String())
	}
	r.Attrs(func(attr slog.Attr) bool {
		key := attr.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		attrParts = append(attrParts, key+"="+attr.Value.String())
		return true
	})

	if len(attrParts) > 0 {
		msg += " " + strings.Join(attrParts, " ")
	}

	var line string
	if color != "" && os.Getenv("NO_COLOR") == "" {
		line = color + msg + ansiReset
	} else {
		line = msg
	}

	_, err := fmt.Fprintln(h.w, line)
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
// Attributes are stored with the current group prefix already applied.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)

	for i, attr := range attrs {
		key := attr.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		newAttrs[len(h.attrs)+i] = slog.Attr{Key: key, Value: attr.Value}
	}

	return &PrettyHandler{
		w:     h.w,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new Handler with the given group name.
// Groups nest: calling WithGroup("a").WithGroup("b") results in group "a.b".
// Per slog.Handler contract, WithGroup("") returns the receiver unchanged.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}

	return &PrettyHandler{
		w:     h.w,
		level: h.level,
		attrs: h.attrs,
		group: newGroup,
	}
}
