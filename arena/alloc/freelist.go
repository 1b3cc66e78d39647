package alloc

import "github.com/joshuapare/heapkit/internal/layout"

// addFree pushes the free block at off onto the head of its tier.
func (a *Allocator) addFree(off int) {
	data := a.g.Bytes()
	t := layout.TierOfFree(layout.Size(data, off))
	head := a.heads[t]

	layout.SetPred(data, off, layout.None)
	layout.SetSucc(data, off, head)
	a.markFree(off)
	if head != layout.None {
		layout.SetPred(data, head, off)
		a.markFree(head)
	}
	a.heads[t] = off
}

// removeFree splices the block at off out of whichever tier holds it. A block
// without a predecessor is located by matching the tier heads, so removal
// never depends on the block's current size.
func (a *Allocator) removeFree(off int) {
	data := a.g.Bytes()
	pred := layout.Pred(data, off)
	succ := layout.Succ(data, off)

	if pred == layout.None {
		for t := range a.heads {
			if a.heads[t] == off {
				a.heads[t] = succ
				break
			}
		}
	} else {
		layout.SetSucc(data, pred, succ)
		a.markFree(pred)
	}
	if succ != layout.None {
		layout.SetPred(data, succ, pred)
		a.markFree(succ)
	}
}

// findFit returns the first block in tier t whose size covers need, or
// layout.None.
func (a *Allocator) findFit(t layout.Tier, need int) int {
	data := a.g.Bytes()
	for cur := a.heads[t]; cur != layout.None; cur = layout.Succ(data, cur) {
		if layout.Size(data, cur) >= need {
			return cur
		}
	}
	return layout.None
}

// FreeList returns the block offsets in tier t, head first.
func (a *Allocator) FreeList(t layout.Tier) []int {
	data := a.g.Bytes()
	var out []int
	for cur := a.heads[t]; cur != layout.None && len(out) <= len(data)/layout.MinBlockSize; cur = layout.Succ(data, cur) {
		out = append(out, cur)
	}
	return out
}

// Heads returns the tier heads.
func (a *Allocator) Heads() [layout.NumTiers]int { return a.heads }

// End returns the offset of the block at the top of the arena.
func (a *Allocator) End() int { return a.end }

// putFree writes a complete free header at off.
func (a *Allocator) putFree(off, size, back int) {
	layout.PutFree(a.g.Bytes(), off, size, back)
	a.markFree(off)
}

func (a *Allocator) setSize(off, size int) {
	layout.SetSize(a.g.Bytes(), off, size)
	a.markUsed(off)
}

func (a *Allocator) setBack(off, back int) {
	layout.SetBack(a.g.Bytes(), off, back)
	a.markUsed(off)
}

// markUsed reports a used-header write at off.
func (a *Allocator) markUsed(off int) {
	if a.dt != nil {
		a.dt.Add(off, layout.UsedHeaderSize)
	}
}

// markFree reports a free-header write at off.
func (a *Allocator) markFree(off int) {
	if a.dt != nil {
		a.dt.Add(off, layout.FreeHeaderSize)
	}
}
