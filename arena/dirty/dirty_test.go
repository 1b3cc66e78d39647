package dirty

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena"
)

func newMemArena(t *testing.T) *arena.Arena {
	t.Helper()
	a, err := arena.New(arena.Config{PageSize: 4096})
	require.NoError(t, err)
	_, err = a.Grow(8 * 4096)
	require.NoError(t, err)
	return a
}

func TestTracker_AddIgnoresEmpty(t *testing.T) {
	tr := NewTracker(newMemArena(t))
	tr.Add(0, 0)
	tr.Add(10, -1)
	tr.Add(-5, 10)
	assert.Equal(t, 0, tr.Len())

	tr.Add(100, 16)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, []Range{{Off: 100, Len: 16}}, tr.Ranges())
}

func TestTracker_CoalesceMergesSamePage(t *testing.T) {
	tr := NewTracker(newMemArena(t))
	ps := tr.pageSize
	tr.Add(10, 16)
	tr.Add(200, 32)
	tr.Add(int(ps)-8, 4)

	got := tr.Coalesced()
	require.Len(t, got, 1)
	assert.Equal(t, Range{Off: 0, Len: ps}, got[0])
}

func TestTracker_CoalesceSpanningAndDisjoint(t *testing.T) {
	tr := NewTracker(newMemArena(t))
	ps := tr.pageSize

	// Unsorted input, one range crossing a page boundary, one far away.
	tr.Add(int(5*ps)+1, 1)
	tr.Add(int(ps)-4, 8)
	tr.Add(int(2*ps), 1)

	got := tr.Coalesced()
	require.Len(t, got, 2)
	assert.Equal(t, Range{Off: 0, Len: 3 * ps}, got[0])
	assert.Equal(t, Range{Off: 5 * ps, Len: ps}, got[1])
}

func TestTracker_CoalesceEmpty(t *testing.T) {
	tr := NewTracker(newMemArena(t))
	assert.Nil(t, tr.Coalesced())
}

func TestTracker_FlushMemoryArenaClears(t *testing.T) {
	tr := NewTracker(newMemArena(t))
	tr.Add(0, 64)
	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0, tr.Flushes())
}

func TestTracker_FlushCancelledKeepsRanges(t *testing.T) {
	tr := NewTracker(newMemArena(t))
	tr.Add(0, 64)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, tr.Flush(ctx), context.Canceled)
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_FlushFileArena(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.bin")
	a, err := arena.Create(path, arena.Config{})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Grow(2 * a.PageSize())
	require.NoError(t, err)

	tr := NewTracker(a)
	copy(a.Bytes()[100:], []byte("persisted"))
	tr.Add(100, 9)
	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, 0, tr.Len())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, onDisk, 2*a.PageSize())
	assert.Equal(t, "persisted", string(onDisk[100:109]))
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(newMemArena(t))
	tr.Add(0, 1)
	tr.Add(4096, 1)
	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Ranges())
}
