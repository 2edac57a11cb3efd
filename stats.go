package cashewset

import "github.com/samee/cashew-set/internal/mem"

// PoolStats reports one allocator pool's counters. A set whose lifetime is
// over (after Close) has BlocksAllocated == BlocksFreed and InUse == 0 in
// both pools.
type PoolStats struct {
	BlocksAllocated uint64
	BlocksFreed     uint64
	InUse           int
	BytesReserved   uint64
}

// Stats is a point-in-time snapshot of the set's shape and memory usage.
type Stats struct {
	Size           int
	Depth          int
	EltCountMax    int
	Fanout         int
	CacheLineBytes int

	NodePool   PoolStats
	FamilyPool PoolStats
}

// Stats returns the current snapshot.
func (s *Set[K]) Stats() Stats {
	return Stats{
		Size:           s.size,
		Depth:          int(s.depth),
		EltCountMax:    s.traits.EltCountMax,
		Fanout:         s.traits.Fanout,
		CacheLineBytes: s.traits.CacheLineBytes,
		NodePool:       poolStats(s.nodePool.Stats()),
		FamilyPool:     poolStats(s.familyPool.Stats()),
	}
}

func poolStats(st mem.Stats) PoolStats {
	return PoolStats{
		BlocksAllocated: st.BlocksAllocated,
		BlocksFreed:     st.BlocksFreed,
		InUse:           st.InUse,
		BytesReserved:   st.BytesReserved,
	}
}
