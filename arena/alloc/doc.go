// Package alloc provides a segregated free-list allocator over a growable arena.
//
// # Overview
//
// Every block in the arena starts with a self-describing header (see
// internal/layout). Used blocks carry a size, a used flag and a back link to
// the block before them; free blocks additionally carry pred/succ links into
// one of three free-list tiers:
//
//	small:   payload  <   32 bytes
//	middle:  payload  32 - 1023 bytes
//	large:   payload >= 1024 bytes
//
// Tiers are doubly linked and head-inserted, so the most recently released
// block is found first.
//
// # Allocation
//
// A request starts at the tier of the requested size and moves only to larger
// tiers, taking the first block that fits. The block is split when the
// remainder can hold a free header plus 16 payload bytes; otherwise the whole
// block is handed out. When nothing fits, the arena grows: a free end block
// is extended in place, otherwise new pages are appended as a fresh end block.
//
// # Release
//
// Free coalesces eagerly with both physical neighbours, so no two free blocks
// are ever adjacent.
//
// # Usage Example
//
//	a, err := arena.New(arena.Config{})
//	if err != nil {
//	    return err
//	}
//	fa, err := alloc.New(a, nil)
//	if err != nil {
//	    return err
//	}
//
//	ref, err := fa.Alloc(128)
//	if err != nil {
//	    return err
//	}
//	payload, _ := fa.Payload(ref)
//	copy(payload, data)
//
//	ref, err = fa.Realloc(ref, 4096)
//	...
//	err = fa.Free(ref)
//
// # Verification Mode
//
// Options.Check, or HEAPKIT_CHECK=1 in the environment, runs Check and a full
// arena walk after every mutating call and panics with a *CheckError on the
// first violation. Check itself can be called at any time.
//
// # References
//
// A Ref is the arena offset of a payload. NilRef (zero) never names a payload
// and is the failure result of Alloc and Realloc. Payload slices are
// invalidated by growth; hold Refs, not slices, across allocations.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally or keep one allocator per goroutine.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/arena: Memory and file-backed arenas
//   - github.com/joshuapare/heapkit/arena/dirty: Tracks modified pages for flush
//   - github.com/joshuapare/heapkit/arena/verify: Arena walk validation
package alloc
