// Package expr implements a small, side-effect-free boolean/interpolation
// expression language: a hand-written recursive-descent parser and
// evaluator over platform facts, environment variables, task runtime
// coordinates, and a handful of filesystem/semver/shell builtins.
package expr

import (
	"strings"

	"zr/internal/core/ports"
)

var _ ports.ExpressionEvaluator = (*Evaluator)(nil)

// Evaluator implements ports.ExpressionEvaluator.
type Evaluator struct{}

// NewEvaluator creates a new Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// EvalCondition parses and evaluates a boolean expression, returning its
// truthiness.
func (e *Evaluator) EvalCondition(expr string, ctx ports.Context) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}

	ast, err := parseExpr(expr)
	if err != nil {
		return false, err
	}

	v, err := ast.eval(newEvalContext(ctx))
	if err != nil {
		return false, err
	}

	return v.Truthy(), nil
}

// Interpolate substitutes every "{{ expr }}" occurrence in s with the
// string result of evaluating expr against ctx.
func (e *Evaluator) Interpolate(s string, ctx ports.Context) (string, error) {
	var sb strings.Builder
	evalCtx := newEvalContext(ctx)

	rest := s
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			sb.WriteString(rest)
			break
		}

		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			return "", newSyntaxError("unterminated '{{' in interpolation")
		}
		end += start

		sb.WriteString(rest[:start])

		inner := strings.TrimSpace(rest[start+2 : end])
		ast, err := parseExpr(inner)
		if err != nil {
			return "", err
		}

		v, err := ast.eval(evalCtx)
		if err != nil {
			return "", err
		}
		sb.WriteString(v.Str())

		rest = rest[end+2:]
	}

	return sb.String(), nil
}
