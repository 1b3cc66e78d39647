package dirty

import "context"

// DirtyTracker is the minimal interface for reporting modified byte ranges.
//
// Components that only notify about writes (the allocator, trace replay)
// depend on this interface and never flush themselves.
type DirtyTracker interface {
	// Add marks a byte range as dirty. off is an arena offset.
	Add(off, length int)
}

// FlushableTracker extends DirtyTracker with durability control.
type FlushableTracker interface {
	DirtyTracker

	// Flush writes the dirty pages to the backing file.
	Flush(ctx context.Context) error
}

var _ FlushableTracker = (*Tracker)(nil)
