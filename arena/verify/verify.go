// Package verify provides validation functions for arena block structure.
// These helpers walk the arena front to back and are used by the allocator's
// verification mode, the inspect tooling, and tests.
package verify

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/layout"
)

// ValidationError describes one violated arena invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrStop may be returned by a Walk callback to end the walk early.
var ErrStop = errors.New("verify: stop walk")

// Walk calls fn for every block in address order. A malformed header ends the
// walk with a *ValidationError of type "BlockHeader". An empty arena has no
// blocks.
func Walk(data []byte, fn func(h layout.Header) error) error {
	for off := 0; off < len(data); {
		h, err := layout.Read(data, off)
		if err != nil {
			return &ValidationError{
				Type:    "BlockHeader",
				Message: err.Error(),
				Offset:  off,
			}
		}
		if err := fn(h); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		off = h.End()
	}
	return nil
}

// AllInvariants validates all structural invariants in one call.
// end is the allocator's top-of-arena block, or layout.None for an empty arena.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte, end int) error {
	if err := BackLinks(data); err != nil {
		return err
	}
	if err := NoAdjacentFree(data); err != nil {
		return err
	}
	return Sentinel(data, end)
}

// BackLinks checks that every block's back link names the block immediately
// before it, and that the first block has none.
func BackLinks(data []byte) error {
	prev := layout.None
	return Walk(data, func(h layout.Header) error {
		if h.Back != prev {
			return &ValidationError{
				Type:    "BackLink",
				Message: fmt.Sprintf("back link %d, expected %d", h.Back, prev),
				Offset:  h.Offset,
				Details: map[string]any{"back": h.Back, "expected": prev},
			}
		}
		prev = h.Offset
		return nil
	})
}

// NoAdjacentFree checks that no two consecutive blocks are both free.
func NoAdjacentFree(data []byte) error {
	prevFree := false
	prevOff := layout.None
	return Walk(data, func(h layout.Header) error {
		if !h.Used && prevFree {
			return &ValidationError{
				Type:    "Adjacency",
				Message: fmt.Sprintf("free block follows free block at 0x%X", prevOff),
				Offset:  h.Offset,
			}
		}
		prevFree = !h.Used
		prevOff = h.Offset
		return nil
	})
}

// Sentinel checks that end is the last block and that it reaches the end of
// the arena exactly.
func Sentinel(data []byte, end int) error {
	if len(data) == 0 {
		if end != layout.None {
			return &ValidationError{
				Type:    "Sentinel",
				Message: fmt.Sprintf("empty arena has end block %d", end),
				Offset:  -1,
			}
		}
		return nil
	}
	last := layout.None
	if err := Walk(data, func(h layout.Header) error {
		last = h.Offset
		return nil
	}); err != nil {
		return err
	}
	if last != end {
		return &ValidationError{
			Type:    "Sentinel",
			Message: fmt.Sprintf("last block is 0x%X, end block is 0x%X", last, end),
			Offset:  end,
		}
	}
	return nil
}

// FreeListCoverage checks that the blocks reachable from the tier heads are
// exactly the free blocks in the arena, each reached once, from the tier
// matching its size.
func FreeListCoverage(data []byte, heads [layout.NumTiers]int) error {
	free := make(map[int]layout.Tier)
	if err := Walk(data, func(h layout.Header) error {
		if !h.Used {
			free[h.Offset] = layout.TierOfFree(h.Size)
		}
		return nil
	}); err != nil {
		return err
	}

	seen := make(map[int]bool, len(free))
	for t, head := range heads {
		tier := layout.Tier(t)
		for cur := head; cur != layout.None; cur = layout.Succ(data, cur) {
			want, ok := free[cur]
			if !ok {
				return &ValidationError{
					Type:    "FreeList",
					Message: fmt.Sprintf("%s tier links to 0x%X, which is not a free block", tier, cur),
					Offset:  cur,
				}
			}
			if seen[cur] {
				return &ValidationError{
					Type:    "FreeList",
					Message: fmt.Sprintf("block reached twice (cycle or shared member) in %s tier", tier),
					Offset:  cur,
				}
			}
			if want != tier {
				return &ValidationError{
					Type:    "FreeList",
					Message: fmt.Sprintf("block of size %d belongs to %s tier, found in %s", layout.Size(data, cur), want, tier),
					Offset:  cur,
				}
			}
			seen[cur] = true
		}
	}

	for off := range free {
		if !seen[off] {
			return &ValidationError{
				Type:    "FreeList",
				Message: "free block is not reachable from any tier head",
				Offset:  off,
			}
		}
	}
	return nil
}
