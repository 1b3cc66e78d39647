package alloc

import (
	"io"
	"log/slog"
	"os"
)

const (
	// EnvCheck enables verification mode when set to "1".
	EnvCheck = "HEAPKIT_CHECK"

	// EnvLogAlloc enables debug logging to stderr when non-empty.
	EnvLogAlloc = "HEAPKIT_LOG_ALLOC"

	// DefaultInitialPages is the number of pages formatted by New on an empty arena.
	DefaultInitialPages = 2
)

// Options configures an Allocator. A nil *Options selects all defaults.
type Options struct {
	// InitialPages is the size of a fresh arena in pages (minimum 2).
	InitialPages int

	// Check runs the consistency checker and an arena walk after every
	// mutating call and panics on the first violation.
	Check bool

	// Logger receives growth and rebuild events. Defaults to a discarding
	// logger, or a stderr debug logger when HEAPKIT_LOG_ALLOC is set.
	Logger *slog.Logger

	// Dirty is told about every header and payload byte the allocator writes.
	Dirty DirtyTracker
}

// resolved returns a copy of o with defaults and environment flags applied.
func (o *Options) resolved() Options {
	var r Options
	if o != nil {
		r = *o
	}
	if r.InitialPages < DefaultInitialPages {
		r.InitialPages = DefaultInitialPages
	}
	if os.Getenv(EnvCheck) == "1" {
		r.Check = true
	}
	if r.Logger == nil {
		r.Logger = defaultLogger()
	}
	return r
}

func defaultLogger() *slog.Logger {
	if os.Getenv(EnvLogAlloc) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
