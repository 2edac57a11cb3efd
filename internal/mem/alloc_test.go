package mem

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestAllocAligned(t *testing.T) {
	sizes := []int{1, 10, 63, 64, 65, 100, 1024}
	aligns := []int{8, 32, 64, 128, 4096}

	for _, align := range aligns {
		for _, size := range sizes {
			buf := AllocAligned(size, align)
			assert.Len(t, buf, size)

			addr := uintptr(unsafe.Pointer(&buf[0]))
			assert.Equal(t, uintptr(0), addr%uintptr(align), "Address %d should be aligned to %d for size %d", addr, align, size)
		}
	}

	assert.Nil(t, AllocAligned(0, 64))
	assert.Nil(t, AllocAligned(-1, 64))
}

func TestAllocAlignedWritable(t *testing.T) {
	buf := AllocAligned(256, 64)
	for i := range buf {
		buf[i] = byte(i)
	}
	for i := range buf {
		assert.Equal(t, byte(i), buf[i])
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 64, 128, 1 << 20} {
		assert.True(t, IsPowerOfTwo(n), "%d", n)
	}
	for _, n := range []int{0, -1, -64, 3, 6, 65, 96} {
		assert.False(t, IsPowerOfTwo(n), "%d", n)
	}
}

func BenchmarkAllocAligned(b *testing.B) {
	sizes := []int{64, 256, 1024, 4096}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = AllocAligned(size, 64)
			}
		})
	}
}
