package object

import (
	"fmt"
	"tasklang/internal/token"
)

// RuntimeError aborts evaluation. Token is the node that failed; Frames
// lists the task calls the error unwound through, innermost first.
type RuntimeError struct {
	Message string
	Token   token.Token
	Frames  []StackFrame
	Err     error // underlying cause, if any
}

type StackFrame struct {
	Task     string
	Position int // position of the call expression
}

func (e *RuntimeError) Error() string { return e.Message }

func (e *RuntimeError) Unwrap() error { return e.Err }

func NewRuntimeError(tok token.Token, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Token: tok}
}

func WrapRuntimeError(tok token.Token, err error) *RuntimeError {
	return &RuntimeError{Message: err.Error(), Token: tok, Err: err}
}

// Unwinding records that the error left the named task called at position.
func (e *RuntimeError) Unwinding(task string, position int) *RuntimeError {
	e.Frames = append(e.Frames, StackFrame{Task: task, Position: position})
	return e
}
