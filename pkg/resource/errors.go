package resource

import (
	"errors"
	"fmt"
)

// ErrorKind classifies resource failures.
type ErrorKind string

const (
	KindUnknownID           ErrorKind = "UNKNOWN_ID"
	KindCorruptBank         ErrorKind = "CORRUPT_BANK"
	KindDecompressionFailed ErrorKind = "DECOMPRESSION_FAILED"
)

var (
	ErrUnknownID           = errors.New("unknown resource id")
	ErrCorruptBank         = errors.New("corrupt bank")
	ErrDecompressionFailed = errors.New("decompression failed")
	ErrUnknownPart         = errors.New("unknown part")
)

// Error is returned by every Store operation that fails on a specific resource.
type Error struct {
	Kind ErrorKind
	ID   int
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] resource 0x%02X: %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("[%s] resource 0x%02X", e.Kind, e.ID)
}

// Unwrap returns the sentinel for the kind so errors.Is works on it, followed
// by the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindUnknownID:
		return ErrUnknownID
	case KindCorruptBank:
		return ErrCorruptBank
	default:
		return ErrDecompressionFailed
	}
}

// IsFatal reports whether the failure comes from damaged data rather than a
// bad request.
func (e *Error) IsFatal() bool {
	return e.Kind != KindUnknownID
}

func newError(kind ErrorKind, id int, err error) *Error {
	return &Error{Kind: kind, ID: id, Err: err}
}
