package layout

import "errors"

var (
	// ErrTruncated indicates a header extends past the end of the arena.
	ErrTruncated = errors.New("layout: truncated block header")

	// ErrBadSize indicates a header carries a size that cannot describe a block.
	ErrBadSize = errors.New("layout: invalid block size")
)
