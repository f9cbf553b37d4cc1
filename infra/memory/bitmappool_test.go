package memory

import "testing"

func TestBitmapPoolAllocateGet(t *testing.T) {
	p := NewBitmapPool[int](nil)
	v, idx := p.Allocate()
	*v = 42
	if got := *p.Get(idx); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestBitmapPoolDeallocateRunsDestructor(t *testing.T) {
	var destroyed int
	p := NewBitmapPool[int](func(v *int) { destroyed = *v })
	v, idx := p.Allocate()
	*v = 7
	p.Deallocate(idx)
	if destroyed != 7 {
		t.Fatalf("destroy ran with %d, want 7", destroyed)
	}
}

func TestBitmapPoolReusesFreedSlot(t *testing.T) {
	p := NewBitmapPool[int](nil)
	_, first := p.Allocate()
	p.Deallocate(first)
	_, second := p.Allocate()
	if second != first {
		t.Fatalf("expected freed slot %v to be reused, got %v", first, second)
	}
}

func TestBitmapPoolGrowsNewChunkWhenFull(t *testing.T) {
	p := NewBitmapPool[int](nil)
	var last Index
	for i := 0; i < p.chunkSize+1; i++ {
		_, idx := p.Allocate()
		last = idx
	}
	if last.chunk != 2 {
		t.Fatalf("expected the (chunkSize+1)th allocation to land in chunk 2, got chunk %d", last.chunk)
	}
}

func TestBitmapPoolDeallocateByBase(t *testing.T) {
	p := NewBitmapPool[int](nil)
	for i := 0; i < 3; i++ {
		p.Allocate()
	}
	// global slot 1 is chunk 1's second slot; DeallocateByBase must resolve
	// it without the caller ever naming a chunk.
	p.DeallocateByBase(1)
	v, idx := p.Allocate()
	*v = 99
	if idx.chunk != 1 || idx.slot != 1 {
		t.Fatalf("expected freed global slot 1 to be reused, got %v", idx)
	}
}

func TestBitmapPoolGetOutOfRangeIndex(t *testing.T) {
	p := NewBitmapPool[int](nil)
	if got := p.Get(Index{chunk: 5}); got != nil {
		t.Fatalf("Get on an unallocated chunk = %v, want nil", got)
	}
}
