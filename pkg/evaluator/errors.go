package evaluator

import "errors"

var (
	ErrNoCallable       = errors.New("evaluator: no callable found in node source")
	ErrMalformedHeader  = errors.New("evaluator: malformed function header")
	ErrUnterminatedBody = errors.New("evaluator: function body is never closed")
)
