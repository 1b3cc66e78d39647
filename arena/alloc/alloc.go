package alloc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/arena/verify"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/layout"
)

// Ref is a payload offset into the arena. Every payload sits behind a used
// header, so no valid Ref is ever zero.
type Ref uint32

// NilRef is the failure sentinel returned when no block was produced.
const NilRef Ref = 0

// maxRequest bounds a request so its block size fits the 32-bit size field.
const maxRequest = layout.MaxBlockSize - layout.UsedHeaderSize

// Allocator manages blocks inside a single growable arena.
//
// All state lives on the arena except the three tier heads and the end block,
// which are rebuilt by New when an existing arena is reopened.
type Allocator struct {
	g     Grower
	dt    DirtyTracker
	log   *slog.Logger
	check bool

	// Segregated free lists, one head per tier (layout.None when empty).
	heads [layout.NumTiers]int

	// Block occupying the top of the arena (layout.None when empty).
	end int

	stats allocatorStats

	// Test hook: called with the byte count before every Grow (nil in production).
	onGrow func(n int)
}

// New creates an allocator over g.
//
// An empty arena is grown by opts.InitialPages pages and formatted as one free
// block. A non-empty arena is walked front to back and its free lists rebuilt;
// a malformed arena yields ErrCorrupt.
func New(g Grower, opts *Options) (*Allocator, error) {
	o := opts.resolved()
	page := g.PageSize()
	if page < layout.MinBlockSize || !layout.IsAligned(page) {
		return nil, fmt.Errorf("%w: page size %d", ErrBadConfig, page)
	}

	a := &Allocator{
		g:     g,
		dt:    o.Dirty,
		log:   o.Logger,
		check: o.Check,
		heads: [layout.NumTiers]int{layout.None, layout.None, layout.None},
		end:   layout.None,
	}

	if g.Hi() < 0 {
		n, ok := buf.MulOverflowSafe(o.InitialPages, page)
		if !ok {
			return nil, fmt.Errorf("%w: %d initial pages of %d bytes", ErrBadConfig, o.InitialPages, page)
		}
		if err := a.format(n); err != nil {
			return nil, err
		}
	} else if err := a.rebuild(); err != nil {
		return nil, err
	}

	a.verifyIfEnabled("init")
	return a, nil
}

// format grows an empty arena by n bytes and lays down one free block.
func (a *Allocator) format(n int) error {
	if n > layout.MaxBlockSize {
		return fmt.Errorf("%w: initial size %d", ErrBadConfig, n)
	}
	base, err := a.growArena(n)
	if err != nil {
		return err
	}
	if base != 0 {
		return fmt.Errorf("%w: initial growth returned base %d", ErrGrowFail, base)
	}
	a.putFree(0, n, layout.None)
	a.end = 0
	a.addFree(0)
	a.log.Debug("arena initialized", "bytes", n, "pages", n/a.g.PageSize())
	return nil
}

// rebuild reconstructs the free lists from an existing arena.
func (a *Allocator) rebuild() error {
	data := a.g.Bytes()
	prev := layout.None
	prevFree := false
	var free []int
	var inUse int64

	err := verify.Walk(data, func(h layout.Header) error {
		if h.Back != prev {
			return fmt.Errorf("block at 0x%X: back link %d, expected %d", h.Offset, h.Back, prev)
		}
		if !h.Used {
			if prevFree {
				return fmt.Errorf("block at 0x%X: adjacent free blocks", h.Offset)
			}
			free = append(free, h.Offset)
		} else {
			inUse += int64(h.Size)
		}
		prevFree = !h.Used
		prev = h.Offset
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	for _, off := range free {
		a.addFree(off)
	}
	a.end = prev
	a.stats.InUse = inUse
	a.stats.PeakInUse = inUse
	a.log.Debug("arena rebuilt", "bytes", len(data), "free_blocks", len(free))
	return nil
}

// Alloc returns a reference to an 8-byte aligned payload of at least size
// bytes. A size of zero or less yields NilRef and no error. When no tier fits
// and the arena cannot grow, Alloc returns NilRef and an error wrapping
// ErrNoSpace; the allocator stays usable.
func (a *Allocator) Alloc(size int) (Ref, error) {
	if size <= 0 {
		return NilRef, nil
	}
	a.stats.AllocCalls++
	if size > maxRequest {
		return NilRef, fmt.Errorf("%w: request %d exceeds block limit", ErrNoSpace, size)
	}

	actual := layout.PayloadSize(size)
	need := actual + layout.UsedHeaderSize

	blk := layout.None
	for t := layout.TierFor(size); t < layout.NumTiers; t++ {
		if blk = a.findFit(t, need); blk != layout.None {
			break
		}
	}

	if blk == layout.None {
		a.stats.AllocSlowPath++
		var err error
		if blk, err = a.grow(need); err != nil {
			a.log.Debug("alloc failed", "size", size, "err", err)
			return NilRef, fmt.Errorf("%w: %w", ErrNoSpace, err)
		}
	} else {
		a.stats.AllocFastPath++
	}

	a.take(blk, actual)
	a.verifyIfEnabled("alloc")
	return Ref(blk + layout.UsedHeaderSize), nil
}

// grow makes room for a block of need bytes at the top of the arena and
// returns the free block that can satisfy it.
//
// A free end block is extended in place by just enough pages to cover the
// shortfall (none if it already fits); otherwise whole pages covering need
// are appended as a new end block.
func (a *Allocator) grow(need int) (int, error) {
	page := a.g.PageSize()
	data := a.g.Bytes()

	if a.end != layout.None && !layout.Used(data, a.end) {
		endSize := layout.Size(data, a.end)
		if endSize >= need {
			// A free end block in a tier below the request's start tier.
			return a.end, nil
		}
		n, err := pageBytes(need-endSize, page)
		if err != nil {
			return layout.None, err
		}
		if endSize+n > layout.MaxBlockSize {
			return layout.None, fmt.Errorf("%w: block of %d bytes exceeds size limit", ErrGrowFail, endSize+n)
		}
		base, err := a.growArena(n)
		if err != nil {
			return layout.None, err
		}
		a.noteGrow(n)
		if base != a.end+endSize {
			return layout.None, fmt.Errorf("%w: base %d, expected %d", ErrGrowFail, base, a.end+endSize)
		}
		// The block may change tier, so it leaves its list before resizing.
		a.removeFree(a.end)
		a.setSize(a.end, endSize+n)
		a.addFree(a.end)
		a.log.Debug("end block extended", "offset", a.end, "bytes", n, "size", endSize+n)
		return a.end, nil
	}

	n, err := pageBytes(need, page)
	if err != nil {
		return layout.None, err
	}
	if n > layout.MaxBlockSize {
		return layout.None, fmt.Errorf("%w: block of %d bytes exceeds size limit", ErrGrowFail, n)
	}
	expected := a.g.Hi() + 1
	base, err := a.growArena(n)
	if err != nil {
		return layout.None, err
	}
	a.noteGrow(n)
	if base != expected {
		return layout.None, fmt.Errorf("%w: base %d, expected %d", ErrGrowFail, base, expected)
	}
	a.putFree(base, n, a.end)
	a.end = base
	a.addFree(base)
	a.log.Debug("end block appended", "offset", base, "bytes", n)
	return base, nil
}

// growArena asks the grower for n bytes and records the outcome.
func (a *Allocator) growArena(n int) (int, error) {
	if a.onGrow != nil {
		a.onGrow(n)
	}
	base, err := a.g.Grow(n)
	if err != nil {
		a.log.Debug("grow refused", "bytes", n, "err", err)
		if errors.Is(err, ErrGrowFail) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", ErrGrowFail, err)
	}
	a.log.Debug("arena grown", "bytes", n, "pages", n/a.g.PageSize(), "base", base)
	return base, nil
}

// noteGrow counts growth done on behalf of an allocation. The initial format
// is not counted.
func (a *Allocator) noteGrow(n int) {
	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(n)
}

// pageBytes returns the byte length of the whole pages covering n bytes.
func pageBytes(n, page int) (int, error) {
	size, ok := buf.MulOverflowSafe(layout.PagesFor(n, page), page)
	if !ok {
		return 0, fmt.Errorf("%w: %d bytes in %d-byte pages overflows", ErrGrowFail, n, page)
	}
	return size, nil
}
