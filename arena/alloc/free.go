package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/layout"
)

// Free releases the block behind ref, coalescing it with free neighbours.
// Releasing NilRef is a no-op. A ref that names no block yields ErrBadRef and
// a block that is already free yields ErrNotUsed; neither mutates the arena.
func (a *Allocator) Free(ref Ref) error {
	if ref == NilRef {
		return nil
	}
	blk, err := a.blockOf(ref)
	if err != nil {
		return err
	}
	a.stats.FreeCalls++

	data := a.g.Bytes()
	size := layout.Size(data, blk)
	a.stats.BytesFreed += int64(size)
	a.stats.InUse -= int64(size)

	layout.SetUsed(data, blk, false)
	a.markUsed(blk)

	// Forward: absorb a free successor.
	if blk != a.end {
		next := blk + size
		if !layout.Used(data, next) {
			a.removeFree(next)
			nextWasEnd := next == a.end
			size += layout.Size(data, next)
			a.setSize(blk, size)
			if nextWasEnd {
				a.end = blk
			} else {
				a.setBack(blk+size, blk)
			}
			a.stats.CoalesceForward++
		}
	}

	// Backward: fold the (possibly merged) block into a free predecessor.
	if back := layout.Back(data, blk); back != layout.None && !layout.Used(data, back) {
		a.removeFree(back)
		merged := layout.Size(data, back) + size
		a.setSize(back, merged)
		if blk == a.end {
			a.end = back
		} else {
			a.setBack(back+merged, back)
		}
		blk = back
		a.stats.CoalesceBackward++
	}

	a.addFree(blk)
	a.verifyIfEnabled("free")
	return nil
}

// blockOf maps ref to its block offset, checking that the header is in
// bounds, plausible, used, and linked to its neighbours.
func (a *Allocator) blockOf(ref Ref) (int, error) {
	data := a.g.Bytes()
	blk := int(ref) - layout.UsedHeaderSize
	if blk < 0 || !layout.IsAligned(blk) {
		return 0, fmt.Errorf("%w: ref 0x%X", ErrBadRef, ref)
	}
	h, err := layout.Read(data, blk)
	if err != nil {
		return 0, fmt.Errorf("%w: ref 0x%X: %w", ErrBadRef, ref, err)
	}

	switch {
	case h.Back == layout.None && blk != 0:
		return 0, fmt.Errorf("%w: ref 0x%X is not a block start", ErrBadRef, ref)
	case h.Back != layout.None && (h.Back < 0 || h.Back >= blk || h.Back+layout.Size(data, h.Back) != blk):
		return 0, fmt.Errorf("%w: ref 0x%X is not a block start", ErrBadRef, ref)
	case blk != a.end && (!buf.Has(data, h.End(), layout.UsedHeaderSize) || layout.Back(data, h.End()) != blk):
		return 0, fmt.Errorf("%w: ref 0x%X is not a block start", ErrBadRef, ref)
	case blk == a.end && h.End() != len(data):
		return 0, fmt.Errorf("%w: ref 0x%X is not a block start", ErrBadRef, ref)
	}

	if !h.Used {
		return 0, fmt.Errorf("%w: ref 0x%X", ErrNotUsed, ref)
	}
	return blk, nil
}
