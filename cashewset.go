package cashewset

import (
	"log/slog"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/samee/cashew-set/internal/layout"
	"github.com/samee/cashew-set/internal/mem"
)

// Key is the set of supported key types: fixed-size, pointer-free ordered
// scalars. Keys are stored by value inside raw node memory, so types carrying
// Go pointers (strings, slices, structs with pointers) are excluded by
// construction.
type Key interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Options configures a Set. Comparisons are assumed cheap; the same two keys
// may be compared repeatedly.
type Options[K Key] struct {
	// Less is the strict ordering capability. Defaults to <.
	Less func(a, b K) bool

	// Equal is the equality capability. Defaults to ==.
	Equal func(a, b K) bool

	// CacheLineBytes is the assumed cache-line size, which is also the exact
	// byte size and alignment of every node. Must be a power of two large
	// enough to hold at least one key. Defaults to 64.
	CacheLineBytes int

	// MaxFamilies bounds the number of live node families. Zero means
	// unbounded. When the bound is hit, Insert fails with ErrOutOfMemory.
	MaxFamilies int

	// Logger receives debug events (depth growth, clear). Nil disables
	// logging.
	Logger *slog.Logger
}

func defaultOptions[K Key]() Options[K] {
	return Options[K]{
		Less:           func(a, b K) bool { return a < b },
		Equal:          func(a, b K) bool { return a == b },
		CacheLineBytes: layout.DefaultCacheLineBytes,
	}
}

// Set is a cache-line-aware ordered set. Every node occupies exactly one
// cache line; every leaf sits at the same depth.
//
// Concurrent reads are safe; mutation concurrent with anything else is
// undefined and must be serialized by the caller.
type Set[K Key] struct {
	traits layout.Traits
	less   func(a, b K) bool
	equal  func(a, b K) bool

	nodePool   *mem.Pool // single cache-line blocks; holds the root
	familyPool *mem.Pool // fanout-node array blocks

	rootRef mem.Ref
	depth   int8 // root sits at depth 1; one byte is plenty
	size    int

	logger *slog.Logger
}

// New creates an empty set for key type K. The node layout is computed and
// validated here, once; a key type or cache-line size that cannot produce an
// exactly line-sized node is rejected as a configuration error.
func New[K Key](optFns ...func(*Options[K])) (*Set[K], error) {
	opts := defaultOptions[K]()

	for _, fn := range optFns {
		fn(&opts)
	}

	var zero K
	tr, err := layout.Compute(int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)), opts.CacheLineBytes)
	if err != nil {
		return nil, err
	}

	nodePool, err := mem.NewPool(tr.CacheLineBytes, tr.CacheLineBytes, mem.WithBlocksPerChunk(1))
	if err != nil {
		return nil, err
	}

	familyOpts := []func(*mem.PoolOptions){}
	if opts.MaxFamilies > 0 {
		familyOpts = append(familyOpts, mem.WithMaxBlocks(opts.MaxFamilies))
		if opts.MaxFamilies < mem.DefaultBlocksPerChunk {
			familyOpts = append(familyOpts, mem.WithBlocksPerChunk(opts.MaxFamilies))
		}
	}

	familyPool, err := mem.NewPool(tr.FamilyBytes(), tr.CacheLineBytes, familyOpts...)
	if err != nil {
		return nil, err
	}

	rootRef, err := nodePool.Alloc()
	if err != nil {
		return nil, err
	}

	return &Set[K]{
		traits:     tr,
		less:       opts.Less,
		equal:      opts.Equal,
		nodePool:   nodePool,
		familyPool: familyPool,
		rootRef:    rootRef,
		depth:      1,
		logger:     opts.Logger,
	}, nil
}

// Count returns 1 if key is present and 0 otherwise.
func (s *Set[K]) Count(key K) int {
	return s.countRecursive(s.nodePool.At(s.rootRef), key)
}

func (s *Set[K]) countRecursive(n unsafe.Pointer, key K) int {
	lessCount := 0
	for i, cnt := 0, int(nodeCount(n)); i < cnt; i++ {
		k := s.keyAt(n, i)
		if s.equal(k, key) {
			return 1
		}
		if s.less(k, key) {
			lessCount++
		}
	}

	fam := nodeFamily(n)
	if fam == mem.NilRef {
		return 0
	}
	return s.countRecursive(s.childAt(fam, lessCount), key)
}

// Size returns the number of keys in the set.
func (s *Set[K]) Size() int { return s.size }

// Empty reports whether the set holds no keys.
func (s *Set[K]) Empty() bool { return s.size == 0 }

// Clear releases the whole tree and resets the set to a single empty leaf at
// depth 1. Cost is proportional to the number of families released.
func (s *Set[K]) Clear() {
	root := s.nodePool.At(s.rootRef)
	s.releaseFamily(nodeFamily(root))
	clear(s.nodePool.Bytes(s.rootRef))
	s.depth = 1
	s.size = 0

	if s.logger != nil {
		s.logger.Debug("set cleared")
	}
}

// releaseFamily recursively releases a family subtree back to the pool. Every
// fanout slot is visited, matching whole-array destruction: pass-through
// nodes keep their children reachable even with a zero count.
func (s *Set[K]) releaseFamily(ref mem.Ref) {
	if ref == mem.NilRef {
		return
	}
	for i := 0; i < s.traits.Fanout; i++ {
		s.releaseFamily(nodeFamily(s.childAt(ref, i)))
	}
	s.familyPool.Free(ref)
}

// Close releases the tree including the root node. The set must not be used
// afterwards. Close is idempotent.
func (s *Set[K]) Close() error {
	if s.rootRef != mem.NilRef {
		s.Clear()
		s.nodePool.Free(s.rootRef)
		s.rootRef = mem.NilRef
	}
	return nil
}

// HostCacheLineBytes returns the cache-line size assumed for the build
// target, for callers that prefer it over the 64-byte default.
func HostCacheLineBytes() int {
	return int(unsafe.Sizeof(cpu.CacheLinePad{}))
}
