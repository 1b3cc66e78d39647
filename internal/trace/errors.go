package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates a malformed or inconsistent trace.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrMisaligned indicates a payload that is not 8-byte aligned.
	ErrMisaligned = errors.New("trace: misaligned payload")

	// ErrOutOfBounds indicates a payload shorter than requested or outside the arena.
	ErrOutOfBounds = errors.New("trace: payload out of bounds")

	// ErrOverlap indicates two live payloads share bytes.
	ErrOverlap = errors.New("trace: overlapping payloads")

	// ErrCorrupted indicates payload bytes changed while the block was live.
	ErrCorrupted = errors.New("trace: payload corrupted")
)

// ReplayError attaches the failing operation to an error.
type ReplayError struct {
	Index int // Position of the op in the trace
	Op    Op
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("trace: op %d (%s id=%d size=%d): %v", e.Index, e.Op.Kind, e.Op.ID, e.Op.Size, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }
