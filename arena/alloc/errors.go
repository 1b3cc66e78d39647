package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block was large enough and the arena could not grow.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrBadRef indicates a reference that does not name a block payload.
	ErrBadRef = errors.New("alloc: bad block reference")

	// ErrGrowFail indicates that the arena refused to grow or grew inconsistently.
	ErrGrowFail = errors.New("alloc: grow failed")

	// ErrNotUsed indicates an attempt to release or resize a block that is not in use.
	ErrNotUsed = errors.New("alloc: block is not in use")

	// ErrCorrupt indicates an existing arena whose blocks cannot be rebuilt.
	ErrCorrupt = errors.New("alloc: corrupt arena")

	// ErrBadConfig indicates a grower or options the allocator cannot work with.
	ErrBadConfig = errors.New("alloc: invalid configuration")
)
