package expr

import (
	"errors"

	"go.trai.ch/zerr"
	"zr/internal/core/domain"
)

func newSyntaxError(msg string) error {
	return zerr.With(domain.ErrInvalidExpression, "reason", msg)
}

// wrapSyntaxError ensures every parse failure, including those surfaced from
// the lexer, chains through ErrInvalidExpression.
func wrapSyntaxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidExpression) {
		return err
	}
	return zerr.Wrap(err, domain.ErrInvalidExpression.Error())
}
