// Package arena provides the growable linear byte region an allocator manages.
//
// # Overview
//
// An Arena is one contiguous, monotonically growing range of bytes
// [0, Hi()]. It never shrinks. Growth appends zeroed bytes at the top and
// returns the offset of the first new byte, which is always the previous
// Hi()+1. Offsets are stable across growth; slices returned by Bytes are not,
// so callers must re-fetch Bytes after every Grow.
//
// # Backings
//
//   - New: memory-backed arena, bounded by Config.MaxSize.
//   - Create / Open: file-backed arena. On Linux and Darwin the file is mapped
//     read-write with mmap and grown with ftruncate + remap; on other
//     platforms the contents are held in memory and written back on Sync.
//
// # Usage Example
//
//	a, err := arena.New(arena.Config{})
//	if err != nil {
//	    return err
//	}
//	base, err := a.Grow(2 * a.PageSize())
//	if err != nil {
//	    return err
//	}
//	data := a.Bytes() // re-fetch after growth
//	_ = data[base]
//
// # Thread Safety
//
// Arena instances are not thread-safe. Callers must synchronize access
// externally.
package arena
