// Package layout houses the on-arena encoding of block headers. Every block
// in an arena starts with a self-describing header; navigation between
// neighbours is computed from these headers, never cached elsewhere.
//
// Used block header (little-endian):
//
//	Offset  Size  Description
//	0x00    4     Total block size (header + payload), multiple of 8.
//	0x04    4     Flags. Bit 0 set => used.
//	0x08    8     Back link: offset of the preceding block, or None.
//	0x10    ...   Payload.
//
// Free block header extends the used header:
//
//	0x10    8     Pred: previous member of the same free-list tier, or None.
//	0x18    8     Succ: next member of the same free-list tier, or None.
package layout

import "math"

const (
	// Alignment is the granularity of every block size and payload offset.
	Alignment = 8

	// AlignmentMask is Alignment-1, used for round-up arithmetic.
	AlignmentMask = Alignment - 1

	// UsedHeaderSize is the number of header bytes preceding a used payload.
	UsedHeaderSize = 16

	// FreeHeaderSize is the header size of a free block (used header + links).
	FreeHeaderSize = 32

	// MinVolume is the smallest payload a split-off remainder may carry.
	// Remainders below FreeHeaderSize+MinVolume stay with the allocation.
	MinVolume = 16

	// MinBlockSize is the smallest block the allocator ever creates.
	MinBlockSize = UsedHeaderSize + FreeHeaderSize

	// MaxBlockSize is the largest size representable in the size field.
	MaxBlockSize = math.MaxUint32 &^ AlignmentMask
)

// Field offsets within a header.
const (
	SizeOffset  = 0x00
	FlagsOffset = 0x04
	BackOffset  = 0x08
	PredOffset  = 0x10
	SuccOffset  = 0x18
)

const (
	// FlagUsed marks a block as handed out to a caller.
	FlagUsed uint32 = 1 << 0
)

const (
	// None is the decoded value of an absent link.
	None = -1

	// noneLink is the encoded form of None.
	noneLink = ^uint64(0)
)
