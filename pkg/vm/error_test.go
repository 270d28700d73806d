package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zurustar/outerworld/pkg/opcode"
)

func TestInterpreterError(t *testing.T) {
	tests := []struct {
		name     string
		err      *InterpreterError
		sentinel error
		contains []string
	}{
		{
			name:     "stack overflow",
			err:      newError(KindStackOverflow, 3, 0x11, ErrStackOverflow),
			sentinel: ErrStackOverflow,
			contains: []string{"STACK_OVERFLOW", "task 3", "0x0011"},
		},
		{
			name:     "decode failure",
			err:      newError(KindUnknownOpcode, 0, 0x1234, &opcode.DecodeError{PC: 0x1234, Opcode: 0x1F, Err: opcode.ErrUnknownOpcode}),
			sentinel: opcode.ErrUnknownOpcode,
			contains: []string{"UNKNOWN_OPCODE", "task 0", "0x1234"},
		},
		{
			name:     "runaway",
			err:      newError(KindRunaway, 63, 0, ErrRunaway),
			sentinel: ErrRunaway,
			contains: []string{"RUNAWAY", "task 63"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(msg, c) {
					t.Errorf("Error() = %q, want it to contain %q", msg, c)
				}
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			if !tt.err.IsFatal() {
				t.Error("IsFatal() = false")
			}

			wrapped := fmt.Errorf("tick: %w", tt.err)
			var ie *InterpreterError
			if !errors.As(wrapped, &ie) || ie.Kind != tt.err.Kind {
				t.Errorf("errors.As did not recover the interpreter error from %v", wrapped)
			}
		})
	}

	if (&InterpreterError{Kind: "OTHER"}).IsFatal() {
		t.Error("unknown kinds should not be fatal")
	}
}
