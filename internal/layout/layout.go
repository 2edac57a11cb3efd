// Package layout computes how many key slots fit in one cache-line-sized
// tree node and validates the result at configuration time.
//
// A node occupies exactly one cache line of L bytes:
//
//	offset 0: family reference (4 bytes, mem.Ref)
//	offset 4: occupancy count (1 byte, int8)
//	offset KeysOffset: EltCountMax key slots of KeySize bytes each
//
// KeysOffset is the reference+count prefix rounded up to the key's natural
// alignment, so key access inside the raw node is always aligned.
package layout

import (
	"fmt"
	"math"
	"math/bits"
)

const (
	// DefaultCacheLineBytes matches the line size of effectively all current
	// x86-64 and most arm64 parts.
	DefaultCacheLineBytes = 64

	// FamilyRefSize is the byte size of the in-node family reference.
	FamilyRefSize = 4

	// CountSize is the byte size of the in-node occupancy count.
	CountSize = 1
)

// ErrBadCacheLine is returned when the configured cache-line size is not a
// power of two.
type ErrBadCacheLine struct {
	Bytes int
}

func (e *ErrBadCacheLine) Error() string {
	return fmt.Sprintf("layout: cache line of %d bytes is not a power of two", e.Bytes)
}

// ErrKeyTooLarge is returned when not even one key slot fits in a node after
// the reference and count fields.
type ErrKeyTooLarge struct {
	KeySize        int
	CacheLineBytes int
}

func (e *ErrKeyTooLarge) Error() string {
	return fmt.Sprintf("layout: key of %d bytes does not fit in a %d-byte node", e.KeySize, e.CacheLineBytes)
}

// ErrCountOverflow is returned when the one-byte count field cannot represent
// a full node plus one child.
type ErrCountOverflow struct {
	EltCountMax int
}

func (e *ErrCountOverflow) Error() string {
	return fmt.Sprintf("layout: count field too narrow for %d keys per node", e.EltCountMax)
}

// Traits describes the computed node layout for one key type and cache-line
// size. All fields are in bytes except EltCountMax and Fanout.
type Traits struct {
	CacheLineBytes int
	KeySize        int
	KeysOffset     int
	EltCountMax    int
	Fanout         int
}

// Compute derives the node layout for a key of the given size and natural
// alignment inside a cacheLineBytes-sized node. It is called once per
// container configuration; any violated precondition is rejected here, never
// at operation time.
func Compute(keySize, keyAlign, cacheLineBytes int) (Traits, error) {
	if !isPowerOfTwo(cacheLineBytes) {
		return Traits{}, &ErrBadCacheLine{Bytes: cacheLineBytes}
	}

	if keySize <= 0 || !isPowerOfTwo(keyAlign) {
		// Unreachable for the scalar key types the container accepts.
		return Traits{}, fmt.Errorf("layout: invalid key shape: size %d, align %d", keySize, keyAlign)
	}

	keysOffset := roundUp(FamilyRefSize+CountSize, keyAlign)
	if keysOffset+keySize > cacheLineBytes {
		return Traits{}, &ErrKeyTooLarge{KeySize: keySize, CacheLineBytes: cacheLineBytes}
	}

	eltCountMax := (cacheLineBytes - keysOffset) / keySize
	if eltCountMax+1 > math.MaxInt8 {
		return Traits{}, &ErrCountOverflow{EltCountMax: eltCountMax}
	}

	tr := Traits{
		CacheLineBytes: cacheLineBytes,
		KeySize:        keySize,
		KeysOffset:     keysOffset,
		EltCountMax:    eltCountMax,
		Fanout:         eltCountMax + 1,
	}

	// The node is carved as exactly one cache line; the computed slots must
	// fill it without spilling over.
	if tr.KeysOffset+tr.EltCountMax*tr.KeySize > tr.CacheLineBytes {
		return Traits{}, fmt.Errorf("layout: node layout exceeds %d bytes", cacheLineBytes)
	}

	return tr, nil
}

// FamilyBytes returns the byte size of one family: a contiguous array of
// Fanout nodes.
func (t Traits) FamilyBytes() int {
	return t.Fanout * t.CacheLineBytes
}

// KeyOffset returns the byte offset of key slot i within a node.
func (t Traits) KeyOffset(i int) int {
	return t.KeysOffset + i*t.KeySize
}

func isPowerOfTwo(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}

func roundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
