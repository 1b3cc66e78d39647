package alloc

import (
	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/dirty"
)

// Grower is the growth primitive the allocator manages blocks on top of.
type Grower interface {
	// Grow extends the arena by n bytes and returns the offset of the first
	// new byte (the previous Hi()+1).
	Grow(n int) (int, error)

	// Bytes returns the current arena contents. Growth may invalidate earlier
	// slices.
	Bytes() []byte

	// PageSize returns the growth granularity in bytes.
	PageSize() int

	// Hi returns the offset of the last arena byte, or -1 when empty.
	Hi() int
}

// DirtyTracker is a type alias for the canonical interface defined in arena/dirty.
type DirtyTracker = dirty.DirtyTracker

var _ Grower = (*arena.Arena)(nil)
