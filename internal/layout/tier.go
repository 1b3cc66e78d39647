package layout

// Tier identifies one of the three segregated free lists.
type Tier uint8

const (
	// TierSmall holds free blocks with payload below SmallLimit bytes.
	TierSmall Tier = iota
	// TierMiddle holds free blocks with payload in [SmallLimit, LargeLimit).
	TierMiddle
	// TierLarge holds free blocks with payload of at least LargeLimit bytes.
	TierLarge

	// NumTiers is the number of free-list tiers.
	NumTiers = 3
)

const (
	// SmallLimit is the exclusive upper payload bound of TierSmall.
	SmallLimit = 32
	// LargeLimit is the inclusive lower payload bound of TierLarge.
	LargeLimit = 1024
)

// TierFor classifies a payload byte count.
func TierFor(payload int) Tier {
	switch {
	case payload < SmallLimit:
		return TierSmall
	case payload < LargeLimit:
		return TierMiddle
	default:
		return TierLarge
	}
}

// TierOfFree classifies a free block by its total size. The payload of a free
// block is measured past the free header.
func TierOfFree(size int) Tier {
	return TierFor(size - FreeHeaderSize)
}

// PayloadRange returns the [lo, hi) payload bounds of t. hi is -1 for the
// unbounded large tier.
func (t Tier) PayloadRange() (lo, hi int) {
	switch t {
	case TierSmall:
		return 0, SmallLimit
	case TierMiddle:
		return SmallLimit, LargeLimit
	default:
		return LargeLimit, -1
	}
}

// Contains reports whether a free block of the given total size belongs to t.
func (t Tier) Contains(size int) bool {
	return TierOfFree(size) == t
}

func (t Tier) String() string {
	switch t {
	case TierSmall:
		return "small"
	case TierMiddle:
		return "middle"
	case TierLarge:
		return "large"
	default:
		return "unknown"
	}
}
