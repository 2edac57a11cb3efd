package cashewset

import (
	"unsafe"

	"github.com/samee/cashew-set/internal/layout"
	"github.com/samee/cashew-set/internal/mem"
)

// Raw node access. A node is one cache line inside pool memory; see
// internal/layout for the slot layout. All unsafe arithmetic is confined to
// this file. Slots past the occupancy count hold stale bytes and are never
// meaningful.

func nodeFamily(n unsafe.Pointer) mem.Ref {
	return *(*mem.Ref)(n)
}

func setNodeFamily(n unsafe.Pointer, ref mem.Ref) {
	*(*mem.Ref)(n) = ref
}

func nodeCount(n unsafe.Pointer) int8 {
	return *(*int8)(unsafe.Add(n, layout.FamilyRefSize))
}

func setNodeCount(n unsafe.Pointer, c int8) {
	*(*int8)(unsafe.Add(n, layout.FamilyRefSize)) = c
}

func (s *Set[K]) keyAt(n unsafe.Pointer, i int) K {
	return *(*K)(unsafe.Add(n, s.traits.KeyOffset(i)))
}

func (s *Set[K]) setKeyAt(n unsafe.Pointer, i int, key K) {
	*(*K)(unsafe.Add(n, s.traits.KeyOffset(i))) = key
}

// childAt returns child node i of the given family.
func (s *Set[K]) childAt(fam mem.Ref, i int) unsafe.Pointer {
	return unsafe.Add(s.familyPool.At(fam), i*s.traits.CacheLineBytes)
}

// copyNode copies one whole node between family slots.
func (s *Set[K]) copyNode(dst, src unsafe.Pointer) {
	n := s.traits.CacheLineBytes
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}

// splitKeys partitions src's first n key slots around pivot: keys less than
// pivot go to destLT in order, the rest to destGE in order. Returns the
// less-than count. destLT may alias src (in-place compaction, writes never
// outrun reads); destGE must be a distinct node.
func (s *Set[K]) splitKeys(src unsafe.Pointer, n int, destLT, destGE unsafe.Pointer, pivot K) int {
	ltCount := 0
	for i := 0; i < n; i++ {
		k := s.keyAt(src, i)
		if s.less(k, pivot) {
			s.setKeyAt(destLT, ltCount, k)
			ltCount++
		} else {
			s.setKeyAt(destGE, i-ltCount, k)
		}
	}
	return ltCount
}
