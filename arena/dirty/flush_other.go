//go:build !linux && !darwin

package dirty

import "context"

// flushRanges is unreachable on platforms without mmap-backed arenas; Flush
// takes the Sync path because the arena is never mapped.
func (t *Tracker) flushRanges(ctx context.Context, _ []byte) error {
	return ctx.Err()
}

func fdatasync(int) error { return nil }
