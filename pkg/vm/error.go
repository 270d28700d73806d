package vm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies interpreter failures.
type ErrorKind string

const (
	KindUnknownOpcode   ErrorKind = "UNKNOWN_OPCODE"
	KindStackOverflow   ErrorKind = "STACK_OVERFLOW"
	KindStackUnderflow  ErrorKind = "STACK_UNDERFLOW"
	KindOutOfBoundsJump ErrorKind = "OUT_OF_BOUNDS_JUMP"
	KindInvalidOperand  ErrorKind = "INVALID_OPERAND"
	// KindRunaway reports a slice that never yields.
	KindRunaway ErrorKind = "RUNAWAY"
)

// Sentinel errors carried by InterpreterError.Err.
var (
	ErrStackOverflow   = errors.New("call stack overflow")
	ErrStackUnderflow  = errors.New("call stack underflow")
	ErrOutOfBoundsJump = errors.New("jump target outside bytecode")
	ErrRunaway         = errors.New("slice did not yield")
)

// InterpreterError reports the task and program counter at which bytecode
// execution failed. Every kind aborts the run.
type InterpreterError struct {
	Kind ErrorKind
	Task int
	PC   int
	Err  error
}

// Error implements the error interface.
func (e *InterpreterError) Error() string {
	return fmt.Sprintf("[%s] task %d at 0x%04X: %v", e.Kind, e.Task, e.PC, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InterpreterError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the run must stop. Every kind defined here is fatal.
func (e *InterpreterError) IsFatal() bool {
	switch e.Kind {
	case KindUnknownOpcode, KindStackOverflow, KindStackUnderflow,
		KindOutOfBoundsJump, KindInvalidOperand, KindRunaway:
		return true
	default:
		return false
	}
}

func newError(kind ErrorKind, task, pc int, err error) *InterpreterError {
	return &InterpreterError{Kind: kind, Task: task, PC: pc, Err: err}
}
