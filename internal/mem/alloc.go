package mem

import (
	"math/bits"
	"unsafe"
)

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}

// AllocAligned allocates a byte slice of the given size whose first byte sits
// at a memory address divisible by align. align must be a positive power of
// two; callers are expected to have validated it up front.
//
// Note: This function allocates slightly more memory than requested to ensure
// alignment. The underlying array is kept alive by the returned slice.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}

	// Allocate size + align so an aligned offset always exists within the
	// buffer; the start pointer may need to shift up to align-1 bytes.
	buf := make([]byte, size+align)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	mask := uintptr(align - 1)
	offset := (uintptr(align) - (addr & mask)) & mask

	return buf[offset : offset+uintptr(size)]
}
