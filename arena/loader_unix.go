//go:build linux || darwin

package arena

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Create creates (or truncates) the file at path and returns an empty
// file-backed arena mapped read-write.
func Create(path string, cfg Config) (*Arena, error) {
	c, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &Arena{cfg: c, f: f, path: path}, nil
}

// Open maps an existing arena file read-write so its blocks can be mutated
// in place.
func Open(path string, cfg Config) (*Arena, error) {
	c, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sz := st.Size()
	if sz > int64(c.MaxSize) {
		_ = f.Close()
		return nil, fmt.Errorf("%w: file %s is %d bytes, limit %d", ErrExhausted, path, sz, c.MaxSize)
	}

	a := &Arena{cfg: c, f: f, path: path}
	if sz == 0 {
		return a, nil
	}
	data, err := mmapRW(f, int(sz))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	a.data = data
	a.mapped = true
	return a, nil
}

// Sync flushes the whole mapping and the file descriptor to disk.
func (a *Arena) Sync() error {
	if a == nil || a.closed {
		return ErrClosed
	}
	if a.f == nil {
		return nil
	}
	if a.mapped && len(a.data) > 0 {
		if err := unix.Msync(a.data, unix.MS_SYNC); err != nil {
			return fmt.Errorf("arena: msync: %w", err)
		}
	}
	return a.f.Sync()
}

// Close unmaps the arena and closes the backing file.
func (a *Arena) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true
	if a.mapped && a.data != nil {
		_ = unix.Munmap(a.data)
	}
	a.data = nil
	a.mapped = false
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}

// growFile extends the backing file to newSize and remaps it. On failure the
// previous mapping is restored so the arena stays usable.
func (a *Arena) growFile(newSize int) error {
	oldSize := len(a.data)

	if a.mapped {
		if err := unix.Munmap(a.data); err != nil {
			return fmt.Errorf("arena: failed to unmap before grow: %w", err)
		}
		a.data = nil
		a.mapped = false
	}

	if err := a.f.Truncate(int64(newSize)); err != nil {
		a.remap(oldSize)
		return fmt.Errorf("arena: failed to extend file: %w", err)
	}

	data, err := mmapRW(a.f, newSize)
	if err != nil {
		_ = a.f.Truncate(int64(oldSize))
		a.remap(oldSize)
		return fmt.Errorf("arena: failed to remap after grow: %w", err)
	}
	a.data = data
	a.mapped = true
	return nil
}

func (a *Arena) remap(size int) {
	if size == 0 {
		return
	}
	data, err := mmapRW(a.f, size)
	if err != nil {
		return
	}
	a.data = data
	a.mapped = true
}

func mmapRW(f *os.File, size int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}
