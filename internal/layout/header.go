package layout

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Header is the decoded form of a block header.
type Header struct {
	Offset int  // Block start within the arena
	Size   int  // Total size including header
	Used   bool // True when handed out to a caller
	Back   int  // Preceding block in address order, or None
	Pred   int  // Free-list predecessor (free blocks only), or None
	Succ   int  // Free-list successor (free blocks only), or None
}

// Payload returns the offset of the first payload byte.
func (h Header) Payload() int { return h.Offset + UsedHeaderSize }

// End returns the exclusive end offset of the block.
func (h Header) End() int { return h.Offset + h.Size }

// Size reads the size field of the block at off.
func Size(b []byte, off int) int {
	return int(buf.U32LE(b[off+SizeOffset:]))
}

// SetSize overwrites the size field of the block at off.
func SetSize(b []byte, off, size int) {
	buf.PutU32LE(b[off+SizeOffset:], uint32(size))
}

// Used reports whether the block at off carries the used flag.
func Used(b []byte, off int) bool {
	return buf.U32LE(b[off+FlagsOffset:])&FlagUsed != 0
}

// SetUsed sets or clears the used flag of the block at off.
func SetUsed(b []byte, off int, used bool) {
	flags := buf.U32LE(b[off+FlagsOffset:])
	if used {
		flags |= FlagUsed
	} else {
		flags &^= FlagUsed
	}
	buf.PutU32LE(b[off+FlagsOffset:], flags)
}

// Back reads the back link of the block at off.
func Back(b []byte, off int) int { return getLink(b, off+BackOffset) }

// SetBack overwrites the back link of the block at off.
func SetBack(b []byte, off, back int) { putLink(b, off+BackOffset, back) }

// Pred reads the free-list predecessor of the free block at off.
func Pred(b []byte, off int) int { return getLink(b, off+PredOffset) }

// SetPred overwrites the free-list predecessor of the free block at off.
func SetPred(b []byte, off, pred int) { putLink(b, off+PredOffset, pred) }

// Succ reads the free-list successor of the free block at off.
func Succ(b []byte, off int) int { return getLink(b, off+SuccOffset) }

// SetSucc overwrites the free-list successor of the free block at off.
func SetSucc(b []byte, off, succ int) { putLink(b, off+SuccOffset, succ) }

// MarkUsed writes a used header of the given size at off, keeping the back link.
func MarkUsed(b []byte, off, size int) {
	SetSize(b, off, size)
	SetUsed(b, off, true)
}

// MarkFree writes a free header of the given size at off, keeping the back
// link. Free-list links are cleared; the free-list index owns them.
func MarkFree(b []byte, off, size int) {
	SetSize(b, off, size)
	SetUsed(b, off, false)
	SetPred(b, off, None)
	SetSucc(b, off, None)
}

// PutFree writes a complete free header at off.
func PutFree(b []byte, off, size, back int) {
	buf.PutU32LE(b[off+FlagsOffset:], 0)
	SetBack(b, off, back)
	MarkFree(b, off, size)
}

// Read decodes the header at off, validating that it fits in b and carries a
// plausible size. Pred and Succ are only decoded for free blocks.
func Read(b []byte, off int) (Header, error) {
	if _, err := buf.CheckSpan(len(b), off, UsedHeaderSize); err != nil {
		return Header{}, fmt.Errorf("block at %d: %w", off, ErrTruncated)
	}
	h := Header{
		Offset: off,
		Size:   Size(b, off),
		Used:   Used(b, off),
		Back:   Back(b, off),
		Pred:   None,
		Succ:   None,
	}
	if h.Size < MinBlockSize || !IsAligned(h.Size) {
		return Header{}, fmt.Errorf("block at %d: size %d: %w", off, h.Size, ErrBadSize)
	}
	if _, err := buf.CheckSpan(len(b), off, h.Size); err != nil {
		return Header{}, fmt.Errorf("block at %d: %w (%v)", off, ErrTruncated, err)
	}
	if !h.Used {
		h.Pred = Pred(b, off)
		h.Succ = Succ(b, off)
	}
	return h, nil
}

func getLink(b []byte, at int) int {
	v := buf.U64LE(b[at:])
	if v == noneLink {
		return None
	}
	return int(v)
}

func putLink(b []byte, at, v int) {
	if v < 0 {
		buf.PutU64LE(b[at:], noneLink)
		return
	}
	buf.PutU64LE(b[at:], uint64(v))
}
