// Package mem provides aligned memory allocation for cache-line-sized
// tree nodes.
//
// # Aligned Allocation
//
// AllocAligned returns heap memory starting at a caller-specified power-of-two
// byte boundary. Pool builds on it: a fixed-shape block allocator whose every
// block has the same size and alignment, handing out compact Ref handles
// instead of pointers so that no Go pointer ever needs to live inside raw
// block memory.
package mem
