package feature

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"

	"lobrecon/feature/f16"
)

// writeHeader writes (T, F, A) as three little-endian uint64s. The format
// fixes little-endian rather than "host byte order": every realistic
// deployment target for this system is little-endian, and fixing the order
// makes a feature file portable across machines (SPEC_FULL.md §3 records
// this choice).
func writeHeader(w io.Writer, t, f, a int) error {
	var hdr [24]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(t))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(f))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(a))
	_, err := w.Write(hdr[:])
	return err
}

func readHeader(r io.Reader) (t, f, a int, err error) {
	var hdr [24]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, 0, err
	}
	t = int(binary.LittleEndian.Uint64(hdr[0:8]))
	f = int(binary.LittleEndian.Uint64(hdr[8:16]))
	a = int(binary.LittleEndian.Uint64(hdr[16:24]))
	return t, f, a, nil
}

// SaveTensor writes header + zstd-compressed row-major [T, F, A] body.
func SaveTensor(w io.Writer, tn *Tensor) error {
	if err := writeHeader(w, tn.T, tn.F, tn.A); err != nil {
		return err
	}
	zw := zstd.NewWriter(w)
	raw := make([]byte, len(tn.data)*2)
	for i, b := range tn.data {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(b))
	}
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// LoadTensor reads back what SaveTensor wrote.
func LoadTensor(r io.Reader) (*Tensor, error) {
	t, f, a, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	zr := zstd.NewReader(r)
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	tn := &Tensor{T: t, F: f, A: a, data: make([]f16.Bits, t*f*a)}
	for i := range tn.data {
		tn.data[i] = f16.Bits(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return tn, nil
}

var separateNames = [3]string{"features_L0.bin", "features_L1.bin", "features_L2.bin"}

// SaveSeparate writes one file per level under dir, each self-describing.
func SaveSeparate(dir string, tensors [3]*Tensor) error {
	for i, tn := range tensors {
		if err := saveToFile(filepath.Join(dir, separateNames[i]), tn); err != nil {
			return err
		}
	}
	return nil
}

// LoadSeparate reads back what SaveSeparate wrote.
func LoadSeparate(dir string) ([3]*Tensor, error) {
	var out [3]*Tensor
	for i, name := range separateNames {
		tn, err := loadFromFile(filepath.Join(dir, name))
		if err != nil {
			return out, err
		}
		out[i] = tn
	}
	return out, nil
}

// linkIndex reads an L0 row's link feature (the same value for every asset,
// since it is a function of t alone) as an integer time index.
func linkIndex(l0 *Tensor, t, offset int) (int, error) {
	v, err := l0.ReadCell(t, offset, 0)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// buildUnified repeats each L1/L2 row at its link index into one combined
// [T_L0, F_L0+F_L1+F_L2, A] tensor, per the unified persistence mode.
func buildUnified(l0, l1, l2 *Tensor, linkL1Offset, linkL2Offset int) (*Tensor, error) {
	combined := NewTensor(l0.T, l0.F+l1.F+l2.F, l0.A)
	for t := 0; t < l0.T; t++ {
		if err := copyRow(combined, l0, t, t, 0); err != nil {
			return nil, err
		}
		l1t, err := linkIndex(l0, t, linkL1Offset)
		if err != nil {
			return nil, err
		}
		if err := copyRow(combined, l1, t, l1t, l0.F); err != nil {
			return nil, err
		}
		l2t, err := linkIndex(l0, t, linkL2Offset)
		if err != nil {
			return nil, err
		}
		if err := copyRow(combined, l2, t, l2t, l0.F+l1.F); err != nil {
			return nil, err
		}
	}
	return combined, nil
}

func copyRow(dst, src *Tensor, dstT, srcT, fOff int) error {
	for f := 0; f < src.F; f++ {
		slab, err := src.ReadCrossSectional(srcT, f)
		if err != nil {
			return err
		}
		dstStart := dst.Address(dstT, fOff+f, 0)
		copy(dst.data[dstStart:dstStart+dst.A], slab)
	}
	return nil
}

// SaveUnified writes one features.bin combining all three levels, the L0
// file's link features supplying the repeat index for L1/L2 rows.
func SaveUnified(dir string, l0, l1, l2 *Tensor, linkL1Offset, linkL2Offset int) error {
	combined, err := buildUnified(l0, l1, l2, linkL1Offset, linkL2Offset)
	if err != nil {
		return err
	}
	return saveToFile(filepath.Join(dir, "features.bin"), combined)
}

// LoadUnified reads features.bin back as one flat [T_L0, F_total, A]
// tensor — a reader in unified mode never needs the three levels split
// apart again.
func LoadUnified(dir string) (*Tensor, error) {
	return loadFromFile(filepath.Join(dir, "features.bin"))
}

func saveToFile(path string, tn *Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return SaveTensor(f, tn)
}

func loadFromFile(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadTensor(f)
}
