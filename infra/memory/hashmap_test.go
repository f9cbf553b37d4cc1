package memory

import "testing"

func idHash(id uint32) uint64 { return uint64(id) * 2654435761 }

func TestHashMapInsertFindErase(t *testing.T) {
	m := NewHashMap[uint32, int](16, idHash)

	m.Insert(1, 100)
	m.Insert(2, 200)

	if v, ok := m.Find(1); !ok || v != 100 {
		t.Fatalf("Find(1) = %d, %v", v, ok)
	}
	if v, ok := m.Find(2); !ok || v != 200 {
		t.Fatalf("Find(2) = %d, %v", v, ok)
	}
	if _, ok := m.Find(3); ok {
		t.Fatal("expected Find(3) to miss")
	}

	if !m.Erase(1) {
		t.Fatal("expected Erase(1) to succeed")
	}
	if _, ok := m.Find(1); ok {
		t.Fatal("expected Find(1) to miss after erase")
	}
	if m.Erase(1) {
		t.Fatal("expected second Erase(1) to fail")
	}
}

func TestHashMapOverwrite(t *testing.T) {
	m := NewHashMap[uint32, int](16, idHash)
	m.Insert(5, 1)
	m.Insert(5, 2)
	if v, _ := m.Find(5); v != 2 {
		t.Fatalf("expected overwrite, got %d", v)
	}
	if m.Len() != 1 {
		t.Fatalf("expected Len 1, got %d", m.Len())
	}
}

func TestHashMapManyCollisions(t *testing.T) {
	m := NewHashMap[uint32, uint32](8, func(uint32) uint64 { return 0 }) // force all into one bucket
	for i := uint32(0); i < 100; i++ {
		m.Insert(i, i*10)
	}
	for i := uint32(0); i < 100; i++ {
		v, ok := m.Find(i)
		if !ok || v != i*10 {
			t.Fatalf("id %d: got %d, %v", i, v, ok)
		}
	}
	if m.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", m.Len())
	}
}
