package alloc

import "github.com/joshuapare/heapkit/internal/layout"

// take removes the free block blk from its tier and marks the first
// actual+UsedHeaderSize bytes used. A remainder large enough to hold a free
// header and MinVolume payload bytes becomes a new free block; anything
// smaller stays with the allocation.
func (a *Allocator) take(blk, actual int) {
	a.removeFree(blk)

	data := a.g.Bytes()
	size := layout.Size(data, blk)
	remainder := size - actual - layout.UsedHeaderSize

	if remainder < layout.FreeHeaderSize+layout.MinVolume {
		layout.MarkUsed(data, blk, size)
		a.markUsed(blk)
		a.noteAlloc(size)
		return
	}

	head := actual + layout.UsedHeaderSize
	layout.MarkUsed(data, blk, head)
	a.markUsed(blk)

	tail := blk + head
	a.putFree(tail, remainder, blk)
	if blk == a.end {
		a.end = tail
	} else {
		a.setBack(tail+remainder, tail)
	}
	a.addFree(tail)

	a.stats.SplitCount++
	a.noteAlloc(head)
}

func (a *Allocator) noteAlloc(size int) {
	a.stats.BytesAllocated += int64(size)
	a.stats.InUse += int64(size)
	a.stats.PeakInUse = max(a.stats.PeakInUse, a.stats.InUse)
}
