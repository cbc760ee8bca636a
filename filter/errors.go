package filter

import (
	"errors"
	"fmt"
)

// ErrEmptyExpression is returned when there is nothing to compile
var ErrEmptyExpression = errors.New("filter expression is empty")

// CompilationError is returned for an expression that cannot be used to
// filter titles: bad syntax, an unknown field, or a non-boolean result.
type CompilationError struct {
	Expression string
	Err        error
}

func (e *CompilationError) Error() string {
	if e.Expression == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid filter %q: %v", e.Expression, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// EvaluationError is returned when a compiled filter fails on one title
type EvaluationError struct {
	Expression string
	TitleID    string
	Title      string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("filter %q failed on %q (%s): %v", e.Expression, e.Title, e.TitleID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
