// Package dirty provides page-level dirty tracking for file-backed arenas.
//
// # Overview
//
// The allocator reports every header it writes, and hosts report payload
// writes, through the DirtyTracker interface. The Tracker records raw ranges
// cheaply and, at flush time, rounds them to page boundaries, sorts and merges
// them, then flushes each merged range with msync.
//
// # Usage
//
//	tracker := dirty.NewTracker(a)
//	fa, err := alloc.New(a, &alloc.Options{Dirty: tracker})
//	...
//	if err := tracker.Flush(ctx); err != nil {
//	    return err
//	}
//
// # Page-Level Granularity
//
// Ranges are rounded to the larger of the arena page size and the OS page
// size, since msync requires OS-page-aligned addresses.
//
// Memory-backed arenas have nothing to flush; Flush only clears the ranges.
//
// # Thread Safety
//
// Tracker instances are not thread-safe.
package dirty
