//go:build darwin

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges syncs the entire mapping. Darwin requires the msync address to
// match the original mmap address; the kernel only writes dirty pages anyway.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return unix.Msync(data, unix.MS_SYNC)
}

// fdatasync falls back to fsync; Darwin has no fdatasync.
func fdatasync(fd int) error {
	return unix.Fsync(fd)
}
