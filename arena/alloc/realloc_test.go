package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena"
)

func TestRealloc_PreservesPrefix(t *testing.T) {
	tests := []struct {
		name    string
		oldSize int
		newSize int
	}{
		{"grow small to middle", 20, 600},
		{"grow middle to large", 500, 3000},
		{"grow past arena", 4000, 12000},
		{"shrink", 2000, 10},
		{"same size", 256, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa, _ := newTestAllocator(t, 0, nil)
			ref := mustAlloc(t, fa, tt.oldSize)
			mustAlloc(t, fa, 16) // pin the block so realloc has to move it

			fill(t, fa, ref, tt.oldSize, 0x41)
			nref, err := fa.Realloc(ref, tt.newSize)
			require.NoError(t, err)
			require.NotEqual(t, NilRef, nref)

			requirePattern(t, fa, nref, min(tt.oldSize, tt.newSize), 0x41)
			usable, err := fa.UsableSize(nref)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, usable, tt.newSize)
			assert.Equal(t, 1, fa.Stats().ReallocCalls)
			requireConsistent(t, fa)
		})
	}
}

func TestRealloc_OldBlockReleased(t *testing.T) {
	fa, _ := newTestAllocator(t, 0, nil)
	ref := mustAlloc(t, fa, 100)
	mustAlloc(t, fa, 16)

	nref, err := fa.Realloc(ref, 1000)
	require.NoError(t, err)
	assert.NotEqual(t, ref, nref)

	_, err = fa.UsableSize(ref)
	require.ErrorIs(t, err, ErrNotUsed)
	requireConsistent(t, fa)
}

func TestRealloc_NilRefAllocates(t *testing.T) {
	fa, _ := newTestAllocator(t, 0, nil)
	ref, err := fa.Realloc(NilRef, 64)
	require.NoError(t, err)
	assert.Equal(t, Ref(16), ref)
	requireConsistent(t, fa)
}

func TestRealloc_ZeroSizeKeepsBlock(t *testing.T) {
	fa, _ := newTestAllocator(t, 0, nil)
	ref := mustAlloc(t, fa, 64)
	fill(t, fa, ref, 64, 3)

	nref, err := fa.Realloc(ref, 0)
	require.NoError(t, err)
	assert.Equal(t, NilRef, nref)
	requirePattern(t, fa, ref, 64, 3)
	require.NoError(t, fa.Free(ref))
	requireConsistent(t, fa)
}

func TestRealloc_FailureLeavesOriginalIntact(t *testing.T) {
	fa, a := newTestAllocator(t, 2*4096, nil)
	ref := mustAlloc(t, fa, 100)
	fill(t, fa, ref, 100, 9)

	nref, err := fa.Realloc(ref, 10000)
	assert.Equal(t, NilRef, nref)
	require.ErrorIs(t, err, ErrNoSpace)
	require.ErrorIs(t, err, arena.ErrExhausted)

	assert.Equal(t, 2*4096, a.Size())
	requirePattern(t, fa, ref, 100, 9)
	usable, err := fa.UsableSize(ref)
	require.NoError(t, err)
	assert.Equal(t, 104, usable)
	requireConsistent(t, fa)

	// The caller still owns the block and may release it.
	require.NoError(t, fa.Free(ref))
	requireConsistent(t, fa)
}

func TestRealloc_FreedRef(t *testing.T) {
	fa, _ := newTestAllocator(t, 0, nil)
	ref := mustAlloc(t, fa, 64)
	mustAlloc(t, fa, 64)
	require.NoError(t, fa.Free(ref))

	_, err := fa.Realloc(ref, 128)
	require.ErrorIs(t, err, ErrNotUsed)
	requireConsistent(t, fa)
}

func TestPayload_CappedToBlock(t *testing.T) {
	fa, _ := newTestAllocator(t, 0, nil)
	a := mustAlloc(t, fa, 100)
	b := mustAlloc(t, fa, 100)

	p, err := fa.Payload(a)
	require.NoError(t, err)
	assert.Len(t, p, 104)
	assert.Equal(t, 104, cap(p))

	// Appending past the payload must not reach the next block.
	fill(t, fa, b, 104, 9)
	_ = append(p, 0xFF)
	requirePattern(t, fa, b, 104, 9)
}
