package dirty

import (
	"context"
	"os"
	"sort"

	"github.com/joshuapare/heapkit/arena"
)

// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
const defaultRangeCapacity = 64

// Range represents a dirty byte range (arena offsets).
type Range struct {
	Off int64
	Len int64
}

// Tracker accumulates dirty ranges and flushes them page-aligned.
type Tracker struct {
	a        *arena.Arena
	ranges   []Range
	pageSize int64
	flushes  int
}

// NewTracker creates a dirty tracker for the given arena.
func NewTracker(a *arena.Arena) *Tracker {
	return &Tracker{
		a:        a,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: int64(max(a.PageSize(), os.Getpagesize())),
	}
}

// Add records a dirty range. Zero or negative lengths are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 || off < 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
}

// Flush flushes all dirty ranges to the backing file, then syncs the file
// descriptor. The context is checked between ranges; a cancelled flush may
// leave some ranges written and keeps all ranges recorded.
func (t *Tracker) Flush(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.a.Mapped() {
		// Memory-backed or write-back arenas persist through Sync.
		if t.a.Path() != "" {
			if err := t.a.Sync(); err != nil {
				return err
			}
		}
		t.Reset()
		return nil
	}

	data := t.a.Bytes()
	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}
	if err := fdatasync(t.a.FD()); err != nil {
		return err
	}
	t.flushes++
	t.Reset()
	return nil
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Len returns the number of raw ranges recorded since the last flush.
func (t *Tracker) Len() int { return len(t.ranges) }

// Flushes returns how many msync flushes completed.
func (t *Tracker) Flushes() int { return t.flushes }

// Ranges returns a copy of the raw, uncoalesced ranges.
func (t *Tracker) Ranges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// Coalesced returns the page-aligned, sorted, merged ranges a flush would write.
func (t *Tracker) Coalesced() []Range {
	return t.coalesce()
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping or
// adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.Off+current.Len {
			end := max(current.Off+current.Len, next.Off+next.Len)
			current.Len = end - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
