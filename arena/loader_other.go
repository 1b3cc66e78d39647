//go:build !linux && !darwin

package arena

import (
	"fmt"
	"io"
	"os"
)

// Create creates (or truncates) the file at path and returns an empty
// file-backed arena. Contents live in memory until Sync or Close.
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

// Open loads an existing arena file into memory.
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
		f.Close()
		return nil, err
	}
	sz := st.Size()
	if sz > int64(c.MaxSize) {
		f.Close()
		return nil, fmt.Errorf("%w: file %s is %d bytes, limit %d", ErrExhausted, path, sz, c.MaxSize)
	}
	data := make([]byte, sz)
	if _, err := io.ReadFull(f, data); err != nil {
		f.Close()
		return nil, err
	}
	return &Arena{cfg: c, f: f, path: path, data: data}, nil
}

// Sync writes the in-memory contents back to the file.
func (a *Arena) Sync() error {
	if a == nil || a.closed {
		return ErrClosed
	}
	if a.f == nil {
		return nil
	}
	if _, err := a.f.WriteAt(a.data, 0); err != nil {
		return fmt.Errorf("arena: write back: %w", err)
	}
	return a.f.Sync()
}

// Close writes the contents back and closes the file.
func (a *Arena) Close() error {
	if a == nil || a.closed {
		return nil
	}
	var err error
	if a.f != nil {
		err = a.Sync()
		if cerr := a.f.Close(); err == nil {
			err = cerr
		}
		a.f = nil
	}
	a.closed = true
	a.data = nil
	return err
}

// growFile extends the in-memory buffer and the file length.
func (a *Arena) growFile(newSize int) error {
	if err := a.f.Truncate(int64(newSize)); err != nil {
		return fmt.Errorf("arena: failed to extend file: %w", err)
	}
	a.growMem(newSize)
	return nil
}
