package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/vertex/pkg/bytecode"
	"github.com/chazu/vertex/pkg/program"
	"github.com/chazu/vertex/pkg/stdlib"
)

var (
	// ErrStackUnderflow is returned when an instruction pops an empty stack.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrUnresolvedCall is returned when a CALL matches no local function,
	// standard-library entry or console primitive.
	ErrUnresolvedCall = errors.New("unresolved call")

	// ErrLabelNotFound is returned when a jump names an undefined label.
	ErrLabelNotFound = program.ErrLabelNotFound

	// ErrNoEntry is returned when the entry function does not exist.
	ErrNoEntry = errors.New("no entry function")

	// ErrCallDepth is returned when calls nest deeper than the limit.
	ErrCallDepth = errors.New("call depth limit exceeded")

	// ErrMissingReturn is returned when a non-Void function finishes without
	// a value of its return type on its stack.
	ErrMissingReturn = errors.New("missing return value")

	// ErrUnknownThrowKind is returned for THROW of a kind outside the catalog.
	ErrUnknownThrowKind = stdlib.ErrUnknownThrowKind
)

// RuntimeError reports the instruction at which execution failed. Errors
// raised inside a callee are wrapped once per active call, so the chain
// reads from the entry function down to the failing instruction.
type RuntimeError struct {
	Function string
	Position int
	Op       bytecode.Opcode
	Err      error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s@%04X %s: %v", e.Function, e.Position, e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
