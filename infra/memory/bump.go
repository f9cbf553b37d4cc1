package memory

import "unsafe"

const bumpChunkBytes = 1 << 20 // ~1 MiB per chunk, keeps a chunk's working set in L2

// Index addresses a value inside a BumpPool without exposing a pointer,
// per the arena/newtype design note: all mutation goes through the pool,
// which owns lifetime.
type Index struct {
	chunk uint32
	slot  uint32
}

// Valid reports whether idx is non-zero. Every Index Alloc returns is
// non-zero (chunks are numbered from 1); an Index from before a Reset still
// reports true.
func (idx Index) Valid() bool { return idx.chunk != 0 || idx.slot != 0 }

// BumpPool is a monotone allocator: Alloc never fails until the process is
// out of memory, and no individual object is ever freed — only Reset
// reclaims the whole arena at once, matching a trading day's lifetime.
type BumpPool[T any] struct {
	chunks    [][]T
	chunkSize int
	cur       int // index of the chunk currently being filled
}

// NewBumpPool creates an empty pool sized so each chunk holds roughly
// bumpChunkBytes worth of T.
func NewBumpPool[T any]() *BumpPool[T] {
	var zero T
	sz := int(unsafe.Sizeof(zero))
	if sz == 0 {
		sz = 1
	}
	chunkSize := bumpChunkBytes / sz
	if chunkSize < 16 {
		chunkSize = 16
	}
	return &BumpPool[T]{chunkSize: chunkSize}
}

// Alloc returns a pointer to a fresh zero-valued T and the Index that
// addresses it.
func (p *BumpPool[T]) Alloc() (*T, Index) {
	if len(p.chunks) == 0 || len(p.chunks[p.cur]) == cap(p.chunks[p.cur]) {
		p.chunks = append(p.chunks, make([]T, 0, p.chunkSize))
		p.cur = len(p.chunks) - 1
	}
	chunk := &p.chunks[p.cur]
	slot := len(*chunk)
	*chunk = append(*chunk, *new(T))
	return &(*chunk)[slot], Index{chunk: uint32(p.cur) + 1, slot: uint32(slot)}
}

// Get resolves an Index back to a pointer. The zero Index is never valid.
func (p *BumpPool[T]) Get(idx Index) *T {
	if idx.chunk == 0 {
		return nil
	}
	return &p.chunks[idx.chunk-1][idx.slot]
}

// Reset releases every chunk. It is the only way a BumpPool gives memory
// back; no per-object free exists.
func (p *BumpPool[T]) Reset() {
	p.chunks = p.chunks[:0]
	p.cur = 0
}

// ChunkCount reports the number of chunks currently allocated, for diagnostics.
func (p *BumpPool[T]) ChunkCount() int { return len(p.chunks) }
