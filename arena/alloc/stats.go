package alloc

import (
	"io"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/internal/layout"
)

// allocatorStats holds internal allocator counters.
type allocatorStats struct {
	AllocCalls       int   // Alloc calls with a positive size
	AllocFastPath    int   // Allocations served from a free list
	AllocSlowPath    int   // Allocations that required growth
	FreeCalls        int   // Successful Free calls
	ReallocCalls     int   // Realloc calls that attempted a move
	GrowCalls        int   // Growths made to satisfy allocations
	GrowBytes        int64 // Bytes added by those growths
	SplitCount       int   // Free blocks split by take
	CoalesceForward  int   // Merges with a free successor
	CoalesceBackward int   // Merges into a free predecessor
	BytesAllocated   int64 // Block bytes handed out (headers included)
	BytesFreed       int64 // Block bytes released (headers included)
	InUse            int64 // Block bytes currently used
	PeakInUse        int64 // High-water mark of InUse
}

// Stats is a snapshot of allocator counters and free-list occupancy.
type Stats struct {
	allocatorStats

	ArenaSize  int                    // Arena length in bytes
	FreeBlocks [layout.NumTiers]int   // Free blocks per tier
	FreeBytes  [layout.NumTiers]int64 // Free block bytes per tier
}

// Stats returns a snapshot of the allocator counters. Free-list occupancy is
// computed by walking the tiers.
func (a *Allocator) Stats() Stats {
	s := Stats{allocatorStats: a.stats, ArenaSize: len(a.g.Bytes())}
	data := a.g.Bytes()
	for t := range a.heads {
		for _, off := range a.FreeList(layout.Tier(t)) {
			s.FreeBlocks[t]++
			s.FreeBytes[t] += int64(layout.Size(data, off))
		}
	}
	return s
}

// Utilization returns PeakInUse as a fraction of the arena size.
func (s Stats) Utilization() float64 {
	if s.ArenaSize == 0 {
		return 0
	}
	return float64(s.PeakInUse) / float64(s.ArenaSize)
}

// WriteStats writes a human-readable statistics report to w.
func (a *Allocator) WriteStats(w io.Writer) error {
	s := a.Stats()
	p := message.NewPrinter(language.English)

	lines := []struct {
		format string
		args   []any
	}{
		{"\n=== ALLOCATOR STATISTICS ===\n", nil},
		{"Arena size:         %d bytes\n", []any{s.ArenaSize}},
		{"Grow calls:         %d (%d bytes added)\n", []any{s.GrowCalls, s.GrowBytes}},
		{"Alloc calls:        %d (fast: %d, slow: %d)\n", []any{s.AllocCalls, s.AllocFastPath, s.AllocSlowPath}},
		{"Free calls:         %d\n", []any{s.FreeCalls}},
		{"Realloc calls:      %d\n", []any{s.ReallocCalls}},
		{"Bytes allocated:    %d\n", []any{s.BytesAllocated}},
		{"Bytes freed:        %d\n", []any{s.BytesFreed}},
		{"In use:             %d (peak %d, %.1f%% of arena)\n", []any{s.InUse, s.PeakInUse, 100 * s.Utilization()}},
		{"Block splits:       %d\n", []any{s.SplitCount}},
		{"Coalesce fwd:       %d\n", []any{s.CoalesceForward}},
		{"Coalesce back:      %d\n", []any{s.CoalesceBackward}},
		{"\nFree lists:\n", nil},
	}
	for _, l := range lines {
		if _, err := p.Fprintf(w, l.format, l.args...); err != nil {
			return err
		}
	}
	for t := range layout.NumTiers {
		tier := layout.Tier(t)
		if _, err := p.Fprintf(w, "  %-8s %6d blocks %12d bytes\n", tier, s.FreeBlocks[t], s.FreeBytes[t]); err != nil {
			return err
		}
	}
	return nil
}

// PrintStats writes the statistics report to stderr.
func (a *Allocator) PrintStats() {
	_ = a.WriteStats(os.Stderr)
}
