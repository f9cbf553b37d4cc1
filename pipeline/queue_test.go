package pipeline

import "testing"

func TestAssetQueuePopDrainsInReverseOrder(t *testing.T) {
	q := NewAssetQueue([]string{"600000", "600001", "600002"})
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	var popped []string
	for {
		code, ok := q.Pop()
		if !ok {
			break
		}
		popped = append(popped, code)
	}

	want := []string{"600002", "600001", "600000"}
	if len(popped) != len(want) {
		t.Fatalf("popped %v, want %v", popped, want)
	}
	for i := range want {
		if popped[i] != want[i] {
			t.Fatalf("popped[%d] = %s, want %s", i, popped[i], want[i])
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len() after drain = %d, want 0", q.Len())
	}
}

func TestAssetQueuePopOnEmptyReturnsFalse(t *testing.T) {
	q := NewAssetQueue(nil)
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop() on empty queue returned ok = true")
	}
}

func TestAssetQueueDoesNotAliasInputSlice(t *testing.T) {
	codes := []string{"600000"}
	q := NewAssetQueue(codes)
	codes[0] = "mutated"

	got, ok := q.Pop()
	if !ok || got != "600000" {
		t.Fatalf("Pop() = (%q, %v), want (600000, true)", got, ok)
	}
}
