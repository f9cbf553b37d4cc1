package feature

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func fillTensor(tn *Tensor, seed float32) {
	for t := 0; t < tn.T; t++ {
		for f := 0; f < tn.F; f++ {
			for a := 0; a < tn.A; a++ {
				tn.WriteCell(t, f, a, seed+float32(t*tn.F*tn.A+f*tn.A+a))
			}
		}
	}
}

func tensorsEqual(t *testing.T, a, b *Tensor) {
	t.Helper()
	if a.T != b.T || a.F != b.F || a.A != b.A {
		t.Fatalf("shape mismatch: %dx%dx%d vs %dx%dx%d", a.T, a.F, a.A, b.T, b.F, b.A)
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			t.Fatalf("cell %d differs: %v vs %v", i, a.data[i], b.data[i])
		}
	}
}

func TestSaveLoadTensorRoundtrip(t *testing.T) {
	tn := NewTensor(2, 3, 4)
	fillTensor(tn, 1)

	var buf bytes.Buffer
	if err := SaveTensor(&buf, tn); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadTensor(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tensorsEqual(t, tn, got)
}

func TestSaveLoadSeparate(t *testing.T) {
	dir := t.TempDir()
	tensors := [3]*Tensor{NewTensor(2, 2, 2), NewTensor(2, 2, 2), NewTensor(2, 2, 2)}
	for i, tn := range tensors {
		fillTensor(tn, float32(i*100))
	}

	if err := SaveSeparate(dir, tensors); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, name := range separateNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	got, err := LoadSeparate(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := range tensors {
		tensorsEqual(t, tensors[i], got[i])
	}
}

func TestSaveLoadUnified(t *testing.T) {
	dir := t.TempDir()

	l0 := NewTensor(4, 3, 2) // features 0,1 data, feature 2 = link_l1
	l1 := NewTensor(1, 2, 2)
	l2 := NewTensor(1, 2, 2)
	fillTensor(l1, 500)
	fillTensor(l2, 900)
	for t := 0; t < l0.T; t++ {
		for a := 0; a < l0.A; a++ {
			l0.WriteCell(t, 0, a, float32(t))
			l0.WriteCell(t, 2, a, 0) // every L0 row links to L1/L2 row 0
		}
	}

	if err := SaveUnified(dir, l0, l1, l2, 2, 2); err != nil {
		t.Fatalf("save: %v", err)
	}
	combined, err := LoadUnified(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if combined.F != l0.F+l1.F+l2.F {
		t.Fatalf("F = %d, want %d", combined.F, l0.F+l1.F+l2.F)
	}
	// Row t=2's L1 slab must equal l1's row 0 (the link target).
	want, _ := l1.DecodeCrossSectional(0, 0)
	got, _ := combined.DecodeCrossSectional(2, l0.F+0)
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("unified L1 slab[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
