package alloc

import (
	"github.com/joshuapare/heapkit/arena/verify"
	"github.com/joshuapare/heapkit/internal/layout"
)

// BlockInfo describes one block in address order.
type BlockInfo struct {
	Offset int
	Size   int
	Used   bool
	Back   int
	Tier   layout.Tier // Meaningful only for free blocks
	End    bool        // True for the block at the top of the arena
}

// Ref returns the payload reference of a used block, or NilRef.
func (b BlockInfo) Ref() Ref {
	if !b.Used {
		return NilRef
	}
	return Ref(b.Offset + layout.UsedHeaderSize)
}

// Blocks walks the arena front to back. The walk stops at the first malformed
// header, returning the blocks seen so far and the error.
func (a *Allocator) Blocks() ([]BlockInfo, error) {
	var out []BlockInfo
	err := verify.Walk(a.g.Bytes(), func(h layout.Header) error {
		out = append(out, BlockInfo{
			Offset: h.Offset,
			Size:   h.Size,
			Used:   h.Used,
			Back:   h.Back,
			Tier:   layout.TierOfFree(h.Size),
			End:    h.Offset == a.end,
		})
		return nil
	})
	return out, err
}
