package mem

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

var (
	// ErrBadAlignment is returned when a pool alignment is not a power of two.
	ErrBadAlignment = errors.New("mem: alignment must be a power of two")
	// ErrBadBlockSize is returned when a block size is not a positive multiple
	// of the pool alignment.
	ErrBadBlockSize = errors.New("mem: block size must be a positive multiple of the alignment")
	// ErrPoolExhausted is returned when an allocation would exceed the pool's
	// block budget.
	ErrPoolExhausted = errors.New("mem: pool exhausted")
)

// DefaultBlocksPerChunk is the number of blocks reserved per backing chunk.
const DefaultBlocksPerChunk = 64

// Ref is a handle to one pool block. The zero Ref is the nil reference and
// never addresses a block, so raw memory zeroed by allocation reads as
// "no reference".
type Ref uint32

// NilRef is the zero, never-valid Ref.
const NilRef Ref = 0

// Stats tracks pool usage. BlocksAllocated and BlocksFreed are cumulative;
// a balanced pool has BlocksAllocated == BlocksFreed and InUse == 0.
type Stats struct {
	BlocksAllocated uint64
	BlocksFreed     uint64
	InUse           int
	BytesReserved   uint64
}

// PoolOptions configures a Pool.
type PoolOptions struct {
	// BlocksPerChunk is the number of blocks carved from each backing chunk.
	BlocksPerChunk int

	// MaxBlocks bounds the total number of distinct blocks the pool may hand
	// out. Zero means unbounded.
	MaxBlocks int
}

// WithBlocksPerChunk sets the chunk granularity.
func WithBlocksPerChunk(n int) func(*PoolOptions) {
	return func(o *PoolOptions) {
		o.BlocksPerChunk = n
	}
}

// WithMaxBlocks bounds the pool's block budget.
func WithMaxBlocks(n int) func(*PoolOptions) {
	return func(o *PoolOptions) {
		o.MaxBlocks = n
	}
}

// Pool is a fixed-shape aligned block allocator. Every block has the same
// byte size and starts at an address divisible by the pool alignment. Blocks
// are addressed through Ref handles; freed blocks are zeroed and recycled
// through a free list.
//
// A Ref is owned by exactly one holder at a time. Ownership moves by
// assignment; the previous holder must forget the Ref once it has been handed
// over or freed. Pool does no locking and must not be shared across
// goroutines without external synchronization.
type Pool struct {
	blockSize      int
	align          int
	blocksPerChunk int
	maxBlocks      int

	chunks [][]byte
	next   int // blocks ever carved; also the highest Ref handed out
	free   []Ref
	stats  Stats
}

// NewPool creates a pool of blockSize-byte blocks aligned to align bytes.
// The shape is validated here, once; Alloc never re-checks it.
func NewPool(blockSize, align int, optFns ...func(*PoolOptions)) (*Pool, error) {
	opts := PoolOptions{
		BlocksPerChunk: DefaultBlocksPerChunk,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if !IsPowerOfTwo(align) {
		return nil, fmt.Errorf("%w: %d", ErrBadAlignment, align)
	}

	if blockSize <= 0 || blockSize%align != 0 {
		return nil, fmt.Errorf("%w: size %d, alignment %d", ErrBadBlockSize, blockSize, align)
	}

	if opts.BlocksPerChunk <= 0 {
		opts.BlocksPerChunk = DefaultBlocksPerChunk
	}

	return &Pool{
		blockSize:      blockSize,
		align:          align,
		blocksPerChunk: opts.BlocksPerChunk,
		maxBlocks:      opts.MaxBlocks,
	}, nil
}

// BlockSize returns the byte size of every block.
func (p *Pool) BlockSize() int { return p.blockSize }

// Align returns the byte alignment of every block.
func (p *Pool) Align() int { return p.align }

// Stats returns a copy of the pool's usage counters.
func (p *Pool) Stats() Stats { return p.stats }

// Alloc hands out one zeroed block. It fails with ErrPoolExhausted before any
// state changes if the block budget would be exceeded.
func (p *Pool) Alloc() (Ref, error) {
	if n := len(p.free); n > 0 {
		ref := p.free[n-1]
		p.free = p.free[:n-1]
		p.stats.BlocksAllocated++
		p.stats.InUse++
		return ref, nil
	}

	if p.maxBlocks > 0 && p.next >= p.maxBlocks {
		return NilRef, fmt.Errorf("%w: budget %d blocks", ErrPoolExhausted, p.maxBlocks)
	}

	if uint64(p.next) >= math.MaxUint32-1 {
		return NilRef, fmt.Errorf("%w: ref space exhausted", ErrPoolExhausted)
	}

	if chunkIdx := p.next / p.blocksPerChunk; chunkIdx == len(p.chunks) {
		size := p.blockSize * p.blocksPerChunk
		p.chunks = append(p.chunks, AllocAligned(size, p.align))
		p.stats.BytesReserved += uint64(size)
	}

	p.next++
	p.stats.BlocksAllocated++
	p.stats.InUse++
	return Ref(p.next), nil
}

// Free destroys the block (zeroes it) and recycles the Ref. The caller must
// hold the only live copy of ref; freeing NilRef or a stale Ref is a caller
// bug.
func (p *Pool) Free(ref Ref) {
	clear(p.Bytes(ref))
	p.free = append(p.free, ref)
	p.stats.BlocksFreed++
	p.stats.InUse--
}

// Bytes returns the block's storage. The slice stays valid until the block is
// freed.
func (p *Pool) Bytes(ref Ref) []byte {
	if ref == NilRef {
		panic("mem: nil ref dereference")
	}
	idx := int(ref) - 1
	chunk := p.chunks[idx/p.blocksPerChunk]
	off := (idx % p.blocksPerChunk) * p.blockSize
	return chunk[off : off+p.blockSize : off+p.blockSize]
}

// At returns the block's base address.
func (p *Pool) At(ref Ref) unsafe.Pointer {
	return unsafe.Pointer(&p.Bytes(ref)[0]) //nolint:gosec // raw block access is the pool's purpose
}
