package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/verify"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// newTestAllocator creates an allocator over a fresh memory arena with 4KB
// pages. maxSize of 0 selects the arena default.
func newTestAllocator(t testing.TB, maxSize int, opts *Options) (*Allocator, *arena.Arena) {
	t.Helper()
	a, err := arena.New(arena.Config{PageSize: 4096, MaxSize: maxSize})
	require.NoError(t, err)
	fa, err := New(a, opts)
	require.NoError(t, err)
	return fa, a
}

// mustAlloc allocates size bytes and fails the test on error.
func mustAlloc(t testing.TB, fa *Allocator, size int) Ref {
	t.Helper()
	ref, err := fa.Alloc(size)
	require.NoError(t, err)
	require.NotEqual(t, NilRef, ref)
	return ref
}

// ============================================================================
// Invariant Helpers
// ============================================================================

// requireConsistent runs the allocator checker and every arena walk check.
func requireConsistent(t testing.TB, fa *Allocator) {
	t.Helper()
	require.NoError(t, fa.Check())
	data := fa.g.Bytes()
	require.NoError(t, verify.AllInvariants(data, fa.end))
	require.NoError(t, verify.FreeListCoverage(data, fa.heads))
}

// fill writes a repeating pattern derived from seed into the payload.
func fill(t testing.TB, fa *Allocator, ref Ref, n int, seed byte) {
	t.Helper()
	p, err := fa.Payload(ref)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(p), n)
	for i := range n {
		p[i] = seed + byte(i)
	}
}

// requirePattern checks the first n payload bytes against fill's pattern.
func requirePattern(t testing.TB, fa *Allocator, ref Ref, n int, seed byte) {
	t.Helper()
	p, err := fa.Payload(ref)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(p), n)
	for i := range n {
		if p[i] != seed+byte(i) {
			require.Failf(t, "payload mismatch", "ref 0x%X byte %d: got %d, want %d", ref, i, p[i], seed+byte(i))
		}
	}
}

// capturePanic runs fn and returns the recovered panic value, if any.
func capturePanic(fn func()) (v any) {
	defer func() { v = recover() }()
	fn()
	return nil
}

// recordingTracker remembers every dirty range it is told about.
type recordingTracker struct {
	ranges [][2]int
}

func (r *recordingTracker) Add(off, length int) {
	r.ranges = append(r.ranges, [2]int{off, length})
}

// covers reports whether some recorded range includes [off, off+n).
func (r *recordingTracker) covers(off, n int) bool {
	for _, rg := range r.ranges {
		if rg[0] <= off && off+n <= rg[0]+rg[1] {
			return true
		}
	}
	return false
}
