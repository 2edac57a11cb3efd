package cashewset

import (
	"fmt"
	"unsafe"

	"github.com/samee/cashew-set/internal/mem"
)

type insertStatus int8

const (
	insertDone insertStatus = iota
	insertDuplicate
	insertSplit
)

// insertResult is the tagged outcome that bubbles up the recursion. On
// insertSplit it carries the two families the caller must re-home; ownership
// of both refs transfers with the result.
type insertResult struct {
	family0, family1 mem.Ref
	status           insertStatus
}

// Insert adds key to the set. It returns true if the key was absent and is
// now present, false for a duplicate (no mutation). A split may propagate all
// the way to the root, growing tree depth by exactly one.
//
// An ErrOutOfMemory failure partway through a cascading split can leave the
// tree partially restructured; there is no rollback, and the set must then be
// treated as no longer trustworthy.
func (s *Set[K]) Insert(key K) (bool, error) {
	root := s.nodePool.At(s.rootRef)
	res, err := s.tryInsert(root, 1, key)
	if err != nil {
		return false, err
	}
	if res.status != insertSplit {
		return res.status != insertDuplicate, nil
	}

	// The root's family split; materialize a new root level.
	famRef, err := s.newFamily()
	if err != nil {
		return false, err
	}
	setNodeFamily(root, famRef)
	lt := s.childAt(famRef, 0)
	gt := s.childAt(famRef, 1)
	setNodeFamily(lt, res.family0)
	setNodeFamily(gt, res.family1)

	// Divvy up the old root keys around the inserted key.
	rootCount := int(nodeCount(root))
	ltCount := s.splitKeys(root, rootCount, lt, gt, key)
	setNodeCount(lt, int8(ltCount))
	setNodeCount(gt, int8(rootCount-ltCount))

	// Reset the root. This is the only step that grows the depth.
	s.setKeyAt(root, 0, key)
	setNodeCount(root, 1)
	s.depth++
	s.size++

	if s.logger != nil {
		s.logger.Debug("tree depth grew", "depth", s.depth, "size", s.size)
	}
	return true, nil
}

// tryInsert attempts to insert key into the subtree under n. On insertSplit
// the caller owns making room at its own level and above.
func (s *Set[K]) tryInsert(n unsafe.Pointer, depth int8, key K) (insertResult, error) {
	s.checkInvariants(n, depth)

	lessCount := 0
	for i, cnt := 0, int(nodeCount(n)); i < cnt; i++ {
		k := s.keyAt(n, i)
		if s.equal(k, key) {
			return insertResult{status: insertDuplicate}, nil
		}
		if s.less(k, key) {
			lessCount++
		}
	}

	if int(nodeCount(n)) < s.traits.EltCountMax {
		// There is no way this node will have to split.
		return s.insertSpacious(n, depth, key, lessCount)
	}
	return s.insertFull(n, depth, key, lessCount)
}

// insertSpacious handles a node with at least one free key slot. The key
// always lands here; a split from below is absorbed by shifting children to
// open a gap. Never returns insertSplit.
//
// Assumes without checking: count < EltCountMax, depth <= s.depth, key has no
// duplicate directly in n, and lessCount is the number of n's keys less than
// key.
func (s *Set[K]) insertSpacious(n unsafe.Pointer, depth int8, key K, lessCount int) (insertResult, error) {
	if depth < s.depth {
		fam := nodeFamily(n)
		if fam == mem.NilRef {
			var err error
			if fam, err = s.newFamily(); err != nil {
				return insertResult{}, err
			}
			setNodeFamily(n, fam)
		}

		res, err := s.tryInsert(s.childAt(fam, lessCount), depth+1, key)
		if err != nil {
			return insertResult{}, err
		}
		if res.status != insertSplit {
			return res, nil
		}

		// O(n) insert of the two split families at child slots lessCount and
		// lessCount+1: shift the larger children one slot right.
		childCount := int(nodeCount(n)) + 1
		for i := childCount; i > lessCount+1; i-- {
			s.copyNode(s.childAt(fam, i), s.childAt(fam, i-1))
		}
		lt := s.childAt(fam, lessCount)
		gt := s.childAt(fam, lessCount+1)
		setNodeFamily(lt, res.family0)
		setNodeFamily(gt, res.family1)

		// Divvy up lt's keys around the inserted key.
		ltTotal := int(nodeCount(lt))
		ltCount := s.splitKeys(lt, ltTotal, lt, gt, key)
		setNodeCount(lt, int8(ltCount))
		setNodeCount(gt, int8(ltTotal-ltCount))
	}

	// Append key to this node.
	cnt := nodeCount(n)
	s.setKeyAt(n, int(cnt), key)
	setNodeCount(n, cnt+1)
	s.size++
	return insertResult{status: insertDone}, nil
}

// insertFull handles a node with no free key slot. At leaf depth it signals
// insertSplit upward untouched; above that, a split from below forces this
// node to split too, since it cannot host one more child.
//
// Assumes without checking: count == EltCountMax, depth <= s.depth, key has
// no duplicate directly in n, and lessCount is as in insertSpacious.
func (s *Set[K]) insertFull(n unsafe.Pointer, depth int8, key K, lessCount int) (insertResult, error) {
	if depth == s.depth {
		return insertResult{status: insertSplit}, nil
	}

	fam := nodeFamily(n)
	if fam == mem.NilRef {
		bugf("full node without a family above leaf depth")
	}

	res, err := s.tryInsert(s.childAt(fam, lessCount), depth+1, key)
	if err != nil {
		return insertResult{}, err
	}
	if res.status != insertSplit {
		return res, nil
	}

	childCount := int(nodeCount(n)) + 1
	nibling, err := s.newFamily()
	if err != nil {
		return insertResult{}, err
	}

	// Let the larger children be adopted by the new sibling family, starting
	// at slot 1; slot 0 is the greater half of the split child.
	for i := lessCount + 1; i < childCount; i++ {
		src := s.childAt(fam, i)
		s.copyNode(s.childAt(nibling, i-lessCount), src)
		setNodeFamily(src, mem.NilRef) // ownership moved with the copy
	}
	lt := s.childAt(fam, lessCount)
	gt := s.childAt(nibling, 0)
	setNodeFamily(lt, res.family0)
	setNodeFamily(gt, res.family1)

	ltTotal := int(nodeCount(lt))
	ltCount := s.splitKeys(lt, ltTotal, lt, gt, key)
	setNodeCount(lt, int8(ltCount))
	setNodeCount(gt, int8(ltTotal-ltCount))

	// Both families bubble up; this node's own keys are partitioned by the
	// caller once it has made room.
	setNodeFamily(n, mem.NilRef)
	return insertResult{family0: fam, family1: nibling, status: insertSplit}, nil
}

// checkInvariants runs the defensive checks on every node Insert visits. Any
// violation is an internal defect, never a recoverable error.
func (s *Set[K]) checkInvariants(n unsafe.Pointer, depth int8) {
	if c := nodeCount(n); c < 0 || int(c) > s.traits.EltCountMax {
		bugf("node count %d out of range [0,%d]", c, s.traits.EltCountMax)
	}
	if depth > s.depth {
		bugf("node depth %d exceeds tree depth %d", depth, s.depth)
	}
	if depth == s.depth && nodeFamily(n) != mem.NilRef {
		bugf("leaf-depth node owns a family")
	}
}

func (s *Set[K]) newFamily() (mem.Ref, error) {
	ref, err := s.familyPool.Alloc()
	if err != nil {
		return mem.NilRef, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}
	return ref, nil
}
