package layout

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
func Align8(n int) int {
	return (n + AlignmentMask) &^ AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// PayloadSize converts a requested byte count into the payload size the
// allocator will reserve: rounded up to Alignment, and never smaller than
// FreeHeaderSize so the block can hold its free-list links once released.
func PayloadSize(requested int) int {
	actual := Align8(requested)
	if actual < FreeHeaderSize {
		return FreeHeaderSize
	}
	return actual
}

// PagesFor returns the minimum number of pageSize pages covering n bytes.
func PagesFor(n, pageSize int) int {
	if n <= 0 {
		return 0
	}
	pages := n / pageSize
	if n%pageSize != 0 {
		pages++
	}
	return pages
}
