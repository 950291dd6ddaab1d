package filter

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr/file"
)

// Error types for filter operations
type (
	// CompilationError indicates a filter expression could not be compiled
	// for a record kind
	CompilationError struct {
		Expression string
		Kind       string // project, backtest or live
		Reason     string
		Position   int // 1-based column, -1 if unknown
		Err        error
	}

	// EvaluationError indicates a compiled filter failed on one record
	EvaluationError struct {
		Expression string
		Kind       string
		Record     string // e.g. "backtest b-1"
		Reason     string
		Err        error
	}
)

func newCompilationError(kind, expression string, err error) *CompilationError {
	ce := &CompilationError{
		Expression: expression,
		Kind:       kind,
		Reason:     err.Error(),
		Position:   -1,
		Err:        err,
	}

	// Keep the message without the source snippet, the expression is printed anyway
	var fe *file.Error
	if errors.As(err, &fe) {
		ce.Reason = fe.Message
		ce.Position = fe.Column + 1
	}
	return ce
}

func (e *CompilationError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s filter '%s' does not compile at column %d: %s", e.Kind, e.Expression, e.Position, e.Reason)
	}
	return fmt.Sprintf("%s filter '%s' does not compile: %s", e.Kind, e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	msg := fmt.Sprintf("%s filter '%s' failed on %s: %s", e.Kind, e.Expression, e.Record, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
