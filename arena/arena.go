package arena

import (
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/internal/buf"
)

const (
	// DefaultPageSize is the growth granularity used when Config.PageSize is 0.
	DefaultPageSize = 4096

	// DefaultMaxSize bounds a memory-backed arena when Config.MaxSize is 0.
	DefaultMaxSize = 20 * (1 << 20)

	// maxArenaSize keeps every block size representable in a 32-bit size field.
	maxArenaSize = 1<<32 - DefaultPageSize
)

// Config controls arena geometry.
type Config struct {
	PageSize int // Page size reported to the allocator (power of two, >= 64)
	MaxSize  int // Upper bound on arena size in bytes
}

func (c Config) withDefaults() (Config, error) {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxSize == 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.PageSize < 64 || c.PageSize&(c.PageSize-1) != 0 {
		return c, fmt.Errorf("%w: page size %d must be a power of two >= 64", ErrBadSize, c.PageSize)
	}
	if c.MaxSize < 0 || c.MaxSize > maxArenaSize {
		return c, fmt.Errorf("%w: max size %d out of range", ErrBadSize, c.MaxSize)
	}
	return c, nil
}

// Arena is a growable byte region, backed by memory or by a file.
type Arena struct {
	cfg    Config
	data   []byte
	f      *os.File
	path   string
	mapped bool // data is an mmap of f
	closed bool
}

// New creates an empty memory-backed arena.
func New(cfg Config) (*Arena, error) {
	c, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Arena{cfg: c}, nil
}

// Bytes returns the current arena contents. The slice is invalidated by Grow.
func (a *Arena) Bytes() []byte { return a.data }

// Size returns the arena length in bytes.
func (a *Arena) Size() int { return len(a.data) }

// Hi returns the offset of the last byte in the arena, or -1 when empty.
func (a *Arena) Hi() int { return len(a.data) - 1 }

// PageSize returns the growth granularity.
func (a *Arena) PageSize() int { return a.cfg.PageSize }

// MaxSize returns the configured size limit.
func (a *Arena) MaxSize() int { return a.cfg.MaxSize }

// Path returns the backing file path, or "" for memory-backed arenas.
func (a *Arena) Path() string { return a.path }

// Mapped reports whether the contents are an mmap of the backing file.
func (a *Arena) Mapped() bool { return a.mapped }

// FD returns the backing file descriptor, or -1 for memory-backed arenas.
func (a *Arena) FD() int {
	if a == nil || a.f == nil {
		return -1
	}
	return int(a.f.Fd())
}

// Grow extends the arena by n zeroed bytes and returns the offset of the
// first new byte (the previous Hi()+1).
func (a *Arena) Grow(n int) (int, error) {
	if a == nil || a.closed {
		return 0, ErrClosed
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: grow by %d", ErrBadSize, n)
	}
	base := len(a.data)
	newSize, ok := buf.AddOverflowSafe(base, n)
	if !ok || newSize > a.cfg.MaxSize {
		return 0, fmt.Errorf("%w: current=%d requested=%d limit=%d", ErrExhausted, base, n, a.cfg.MaxSize)
	}
	if a.f != nil {
		if err := a.growFile(newSize); err != nil {
			return 0, err
		}
		return base, nil
	}
	a.growMem(newSize)
	return base, nil
}

// growMem extends the in-memory slice. Bytes past len(a.data) are never
// written, so reused capacity is already zero.
func (a *Arena) growMem(newSize int) {
	if newSize > cap(a.data) {
		nd := make([]byte, len(a.data), min(max(newSize, 2*cap(a.data)), a.cfg.MaxSize))
		copy(nd, a.data)
		a.data = nd
	}
	a.data = a.data[:newSize]
}
