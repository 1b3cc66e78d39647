package trace

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/joshuapare/heapkit/arena/alloc"
	"github.com/joshuapare/heapkit/internal/layout"
)

// Heap is the allocator surface a replay drives.
type Heap interface {
	Alloc(size int) (alloc.Ref, error)
	Realloc(ref alloc.Ref, size int) (alloc.Ref, error)
	Free(ref alloc.Ref) error
	Payload(ref alloc.Ref) ([]byte, error)
	MarkDirty(ref alloc.Ref, off, n int)
	Check() error
	Stats() alloc.Stats
}

var _ Heap = (*alloc.Allocator)(nil)

// ReplayOptions controls a replay.
type ReplayOptions struct {
	// Check runs the heap's consistency checker after every operation.
	Check bool

	// Logger receives per-op debug events and the summary. Defaults to discard.
	Logger *slog.Logger
}

// Result summarizes a replay.
type Result struct {
	Ops         int
	Allocs      int
	Reallocs    int
	Frees       int
	PeakPayload int     // Largest total of live requested bytes
	ArenaSize   int     // Arena size after the last op
	Utilization float64 // PeakPayload / ArenaSize
	Stats       alloc.Stats
}

type binding struct {
	ref  alloc.Ref
	size int
}

// span is a live payload range [lo, hi) owned by id.
type span struct {
	lo, hi int
	id     int
}

// replayer holds the per-run state of Replay.
type replayer struct {
	h     Heap
	log   *slog.Logger
	bound []*binding
	spans []span // sorted by lo
	live  int
}

// Replay runs every op of t against h.
//
// Each payload is filled with a pattern derived from its id. Before a block
// is released or resized its pattern is verified, so any write by the
// allocator into a live payload is reported as ErrCorrupted. A realloc to
// size zero releases the block and unbinds its id, which a later alloc may
// reuse. The first failure stops the replay with a
// *ReplayError.
func Replay(h Heap, t *Trace, opts ReplayOptions) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &replayer{h: h, log: log, bound: make([]*binding, t.NumIDs)}
	res := &Result{}

	for i, op := range t.Ops {
		if op.ID < 0 || op.ID >= t.NumIDs {
			return res, &ReplayError{Index: i, Op: op, Err: fmt.Errorf("%w: id out of range", ErrSyntax)}
		}
		var err error
		switch op.Kind {
		case OpAlloc:
			res.Allocs++
			err = r.alloc(op)
		case OpRealloc:
			res.Reallocs++
			err = r.realloc(op)
		case OpFree:
			res.Frees++
			err = r.free(op)
		default:
			err = fmt.Errorf("%w: unknown op kind", ErrSyntax)
		}
		if err == nil && opts.Check {
			err = h.Check()
		}
		if err != nil {
			return res, &ReplayError{Index: i, Op: op, Err: err}
		}
		res.Ops++
		res.PeakPayload = max(res.PeakPayload, r.live)
	}

	res.Stats = h.Stats()
	res.ArenaSize = res.Stats.ArenaSize
	if res.ArenaSize > 0 {
		res.Utilization = float64(res.PeakPayload) / float64(res.ArenaSize)
	}
	log.Debug("replay finished",
		"ops", res.Ops,
		"peak_payload", res.PeakPayload,
		"arena", res.ArenaSize,
		"utilization", res.Utilization)
	return res, nil
}

func (r *replayer) alloc(op Op) error {
	if r.bound[op.ID] != nil {
		return fmt.Errorf("%w: id already bound", ErrSyntax)
	}
	ref, err := r.h.Alloc(op.Size)
	if err != nil {
		return err
	}
	if err := r.bind(op.ID, ref, op.Size); err != nil {
		return err
	}
	r.log.Debug("alloc", "id", op.ID, "size", op.Size, "ref", ref)
	return nil
}

func (r *replayer) realloc(op Op) error {
	b := r.bound[op.ID]
	if b == nil {
		return fmt.Errorf("%w: realloc of unbound id", ErrSyntax)
	}
	if err := r.verify(op.ID, b); err != nil {
		return err
	}
	if op.Size == 0 {
		if err := r.release(op.ID, b); err != nil {
			return err
		}
		r.log.Debug("realloc to zero", "id", op.ID, "ref", b.ref)
		return nil
	}

	ref, err := r.h.Realloc(b.ref, op.Size)
	if err != nil {
		return err
	}
	r.unbind(op.ID, b)

	// The preserved prefix must still carry the id pattern.
	keep := min(b.size, op.Size)
	p, err := r.h.Payload(ref)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfBounds, err)
	}
	if len(p) < keep {
		return fmt.Errorf("%w: payload %d bytes, need %d", ErrOutOfBounds, len(p), keep)
	}
	if i := mismatch(p[:keep], op.ID); i >= 0 {
		return fmt.Errorf("%w: realloc lost byte %d of %d", ErrCorrupted, i, keep)
	}
	if err := r.bind(op.ID, ref, op.Size); err != nil {
		return err
	}
	r.log.Debug("realloc", "id", op.ID, "size", op.Size, "from", b.ref, "to", ref)
	return nil
}

func (r *replayer) free(op Op) error {
	b := r.bound[op.ID]
	if b == nil {
		return fmt.Errorf("%w: free of unbound id", ErrSyntax)
	}
	if err := r.verify(op.ID, b); err != nil {
		return err
	}
	if err := r.release(op.ID, b); err != nil {
		return err
	}
	r.log.Debug("free", "id", op.ID, "ref", b.ref)
	return nil
}

func (r *replayer) release(id int, b *binding) error {
	if err := r.h.Free(b.ref); err != nil {
		return err
	}
	r.unbind(id, b)
	return nil
}

// bind records a new live payload, checking it and filling its pattern.
func (r *replayer) bind(id int, ref alloc.Ref, size int) error {
	b := &binding{ref: ref, size: size}
	if ref != alloc.NilRef {
		if !layout.IsAligned(int(ref)) {
			return fmt.Errorf("%w: ref 0x%X", ErrMisaligned, ref)
		}
		p, err := r.h.Payload(ref)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutOfBounds, err)
		}
		if len(p) < size {
			return fmt.Errorf("%w: payload %d bytes, requested %d", ErrOutOfBounds, len(p), size)
		}
		if size > 0 {
			if err := r.addSpan(span{lo: int(ref), hi: int(ref) + size, id: id}); err != nil {
				return err
			}
		}
		for i := range size {
			p[i] = pattern(id, i)
		}
		r.h.MarkDirty(ref, 0, size)
	}
	r.bound[id] = b
	r.live += size
	return nil
}

func (r *replayer) unbind(id int, b *binding) {
	if b.ref != alloc.NilRef && b.size > 0 {
		r.removeSpan(int(b.ref))
	}
	r.bound[id] = nil
	r.live -= b.size
}

// verify checks that a live payload still carries its pattern.
func (r *replayer) verify(id int, b *binding) error {
	if b.ref == alloc.NilRef || b.size == 0 {
		return nil
	}
	p, err := r.h.Payload(b.ref)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfBounds, err)
	}
	if len(p) < b.size {
		return fmt.Errorf("%w: payload shrank to %d bytes", ErrOutOfBounds, len(p))
	}
	if i := mismatch(p[:b.size], id); i >= 0 {
		return fmt.Errorf("%w: byte %d of id %d", ErrCorrupted, i, id)
	}
	return nil
}

func (r *replayer) addSpan(s span) error {
	i := sort.Search(len(r.spans), func(i int) bool { return r.spans[i].lo >= s.lo })
	if i > 0 && r.spans[i-1].hi > s.lo {
		return fmt.Errorf("%w: [0x%X,0x%X) overlaps id %d", ErrOverlap, s.lo, s.hi, r.spans[i-1].id)
	}
	if i < len(r.spans) && r.spans[i].lo < s.hi {
		return fmt.Errorf("%w: [0x%X,0x%X) overlaps id %d", ErrOverlap, s.lo, s.hi, r.spans[i].id)
	}
	r.spans = append(r.spans, span{})
	copy(r.spans[i+1:], r.spans[i:])
	r.spans[i] = s
	return nil
}

func (r *replayer) removeSpan(lo int) {
	i := sort.Search(len(r.spans), func(i int) bool { return r.spans[i].lo >= lo })
	if i < len(r.spans) && r.spans[i].lo == lo {
		r.spans = append(r.spans[:i], r.spans[i+1:]...)
	}
}

func pattern(id, i int) byte {
	return byte(id*131 + i)
}

// mismatch returns the index of the first byte not matching id's pattern, or -1.
func mismatch(p []byte, id int) int {
	for i, c := range p {
		if c != pattern(id, i) {
			return i
		}
	}
	return -1
}
