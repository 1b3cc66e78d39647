package arena

import "errors"

var (
	// ErrExhausted indicates the arena cannot grow past its configured limit.
	ErrExhausted = errors.New("arena: address space exhausted")

	// ErrClosed indicates an operation on a closed arena.
	ErrClosed = errors.New("arena: closed")

	// ErrBadSize indicates a non-positive growth request or an invalid config.
	ErrBadSize = errors.New("arena: invalid size")
)
