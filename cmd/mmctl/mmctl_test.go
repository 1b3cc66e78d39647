package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/trace"
)

const sampleTrace = `20000
3
8
1
a 0 16
a 1 2000
f 0
a 2 16
r 1 3000
r 2 40
f 1
f 2
`

func TestReplayCommand(t *testing.T) {
	resetFlags(t)
	path := writeTrace(t, "short.rep", sampleTrace)

	replayCheck = true
	out, err := captureOutput(t, func() error {
		return runReplay(context.Background(), []string{path})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "short.rep")
	assert.Contains(t, out, "ops=8")
	assert.Contains(t, out, "peak=3,040")
}

func TestReplayCommand_JSON(t *testing.T) {
	resetFlags(t)
	good := writeTrace(t, "good.rep", sampleTrace)
	bad := writeTrace(t, "bad.rep", "10\n1\n1\n1\nf 0\n")

	jsonOut = true
	out, err := captureOutput(t, func() error {
		return runReplay(context.Background(), []string{good, bad})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 traces failed")

	var results []replayResult
	assertJSON(t, out, &results)
	require.Len(t, results, 2)
	assert.Equal(t, 8, results[0].Ops)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, 8192, results[0].ArenaSize)
	assert.Contains(t, results[1].Error, "syntax")
}

func TestReplayCommand_Stats(t *testing.T) {
	resetFlags(t)
	path := writeTrace(t, "short.rep", sampleTrace)

	replayStats = true
	out, err := captureOutput(t, func() error {
		return runReplay(context.Background(), []string{path})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "=== ALLOCATOR STATISTICS ===")
}

func TestReplayCommand_Exhaustion(t *testing.T) {
	resetFlags(t)
	path := writeTrace(t, "big.rep", "0\n1\n2\n1\na 0 100000\nf 0\n")

	replayMaxHeap = 16 * 4096
	_, err := captureOutput(t, func() error {
		return runReplay(context.Background(), []string{path})
	})
	require.Error(t, err)
}

func TestGenThenReplayThenInspect(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "random.rep")
	arenaPath := filepath.Join(dir, "heap.arena")

	genOps, genSeed, genOutput = 800, 5, tracePath
	_, err := captureOutput(t, runGen)
	require.NoError(t, err)

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Greater(t, len(lines), 800)

	replayFile = arenaPath
	_, err = captureOutput(t, func() error {
		return runReplay(context.Background(), []string{tracePath})
	})
	require.NoError(t, err)

	st, err := os.Stat(arenaPath)
	require.NoError(t, err)
	assert.Positive(t, st.Size())

	inspectBlocks = true
	out, err := captureOutput(t, func() error { return runInspect([]string{arenaPath}) })
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "Free lists:")
	assert.Contains(t, out, "(end)")

	jsonOut = true
	out, err = captureOutput(t, func() error { return runInspect([]string{arenaPath}) })
	require.NoError(t, err)
	var report inspectReport
	assertJSON(t, out, &report)
	assert.True(t, report.Valid)
	// Every trace frees all its ids, so the arena coalesces to one free block.
	require.Len(t, report.Blocks, 1)
	assert.False(t, report.Blocks[0].Used)
	assert.Zero(t, report.UsedBlocks)
}

func TestInspectCommand_Corrupt(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "garbage.arena")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o600))

	_, err := captureOutput(t, func() error { return runInspect([]string{path}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestInspectCommand_Empty(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "empty.arena")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := captureOutput(t, func() error { return runInspect([]string{path}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestGenCommand_Stdout(t *testing.T) {
	resetFlags(t)
	genOps, genSeed = 10, 3

	first, err := captureOutput(t, runGen)
	require.NoError(t, err)
	second, err := captureOutput(t, runGen)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	tr, err := trace.Parse(strings.NewReader(first))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(tr.Ops), 10)
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)
	out, err := captureOutput(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, out, "mmctl dev")
}
