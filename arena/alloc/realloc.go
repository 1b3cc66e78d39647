package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/layout"
)

// Realloc moves the payload behind ref into a block of at least size bytes.
//
// The first min(size, UsableSize(ref)) bytes are preserved. Realloc(NilRef, n)
// behaves as Alloc(n). If the new block cannot be allocated, ref is left
// allocated and untouched, and NilRef is returned; a size of zero or less is
// treated the same way, without an error.
func (a *Allocator) Realloc(ref Ref, size int) (Ref, error) {
	if ref == NilRef {
		return a.Alloc(size)
	}
	blk, err := a.blockOf(ref)
	if err != nil {
		return NilRef, err
	}
	if size <= 0 {
		return NilRef, nil
	}
	a.stats.ReallocCalls++

	oldSize := layout.Size(a.g.Bytes(), blk) - layout.UsedHeaderSize

	nref, err := a.Alloc(size)
	if err != nil {
		return NilRef, err
	}

	// Alloc may have grown the arena; fetch the bytes afresh.
	data := a.g.Bytes()
	n := min(size, oldSize)
	copy(data[int(nref):int(nref)+n], data[int(ref):int(ref)+n])
	if a.dt != nil {
		a.dt.Add(int(nref), n)
	}

	if err := a.Free(ref); err != nil {
		return NilRef, err
	}
	return nref, nil
}

// Payload returns the usable bytes behind ref. The slice is invalidated by
// any call that grows the arena.
func (a *Allocator) Payload(ref Ref) ([]byte, error) {
	blk, err := a.blockOf(ref)
	if err != nil {
		return nil, err
	}
	data := a.g.Bytes()
	p, ok := buf.Slice(data, int(ref), layout.Size(data, blk)-layout.UsedHeaderSize)
	if !ok {
		return nil, fmt.Errorf("%w: ref 0x%X payload out of bounds", ErrBadRef, ref)
	}
	return p[:len(p):len(p)], nil
}

// UsableSize returns the payload length behind ref, which may exceed the
// size originally requested.
func (a *Allocator) UsableSize(ref Ref) (int, error) {
	blk, err := a.blockOf(ref)
	if err != nil {
		return 0, err
	}
	return layout.Size(a.g.Bytes(), blk) - layout.UsedHeaderSize, nil
}

// MarkDirty reports a caller write of n payload bytes starting at ref+off.
func (a *Allocator) MarkDirty(ref Ref, off, n int) {
	if a.dt != nil && n > 0 {
		a.dt.Add(int(ref)+off, n)
	}
}
