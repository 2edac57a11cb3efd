// Package cashewset provides an ordered-set container whose every tree node
// occupies exactly one CPU cache line.
//
// The tree is a B-tree variant tuned for memory layout rather than classical
// balance: each node is one cache line (64 bytes by default) holding a child
// reference, an occupancy count, and as many key slots as fit. Keys inside a
// node are unsorted; lookups count the keys less than the probe to pick a
// child. Splits always partition around the inserted key, never a median, so
// the tree can be skewed and may contain legal zero-key pass-through nodes.
//
// # Quick Start
//
//	s, _ := cashewset.New[int32]()
//	ok, _ := s.Insert(42) // true: newly inserted
//	ok, _ = s.Insert(42)  // false: duplicate, no mutation
//	n := s.Count(42)      // 1
//	_ = s.Size()          // 1
//	s.Clear()
//
// Keys are fixed-size pointer-free scalars (see Key); ordering and equality
// default to < and == and can be overridden per set:
//
//	s, _ := cashewset.New(func(o *cashewset.Options[uint64]) {
//	    o.CacheLineBytes = cashewset.HostCacheLineBytes()
//	})
//
// # Concurrency
//
// Operations are pure CPU with no internal locking. Concurrent reads are
// safe; any mutation concurrent with anything else must be serialized by the
// caller.
package cashewset
