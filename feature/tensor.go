package feature

import "lobrecon/feature/f16"

// Tensor is one dense [T, F, A] array of half-float cells, row-major with A
// as the fastest-varying dimension: Address(t,f,a) = t*F*A + f*A + a. A
// fixed (t, f) therefore yields a contiguous stride-1 run of length A,
// which is what the cross-sectional workers want; a producer's per-instrument
// time-series write has stride A instead, acceptable for L2-cache-sized A.
type Tensor struct {
	T, F, A int
	data    []f16.Bits
}

func NewTensor(t, f, a int) *Tensor {
	return &Tensor{T: t, F: f, A: a, data: make([]f16.Bits, t*f*a)}
}

// Address implements the layout formula directly.
func (tn *Tensor) Address(t, f, a int) int {
	return t*tn.F*tn.A + f*tn.A + a
}

func (tn *Tensor) inBounds(t, f, a int) bool {
	return t >= 0 && t < tn.T && f >= 0 && f < tn.F && a >= 0 && a < tn.A
}

// ReadCell returns one decoded value.
func (tn *Tensor) ReadCell(t, f, a int) (float32, error) {
	if !tn.inBounds(t, f, a) {
		return 0, ErrFieldRange
	}
	return tn.data[tn.Address(t, f, a)].ToFloat32(), nil
}

// WriteCell stores one encoded value.
func (tn *Tensor) WriteCell(t, f, a int, v float32) error {
	if !tn.inBounds(t, f, a) {
		return ErrFieldRange
	}
	tn.data[tn.Address(t, f, a)] = f16.FromFloat32(v)
	return nil
}

// WriteTimeSeries copies values into the stride-A positions starting at
// feature offset fOff for one (t, a) cell, per spec's time-series write.
func (tn *Tensor) WriteTimeSeries(t, a, fOff int, values []float32) error {
	if !tn.inBounds(t, fOff, a) || !tn.inBounds(t, fOff+len(values)-1, a) {
		return ErrFieldRange
	}
	for i, v := range values {
		tn.data[tn.Address(t, fOff+i, a)] = f16.FromFloat32(v)
	}
	return nil
}

// WriteCrossSectional memcpys values into the contiguous A-length slab at
// (t, f).
func (tn *Tensor) WriteCrossSectional(t, f int, values []float32) error {
	if !tn.inBounds(t, f, 0) || len(values) != tn.A {
		return ErrFieldRange
	}
	start := tn.Address(t, f, 0)
	for i, v := range values {
		tn.data[start+i] = f16.FromFloat32(v)
	}
	return nil
}

// ReadCrossSectional returns the raw encoded contiguous A-length slab at
// (t, f) — a view into the backing array, not a copy, matching the spec's
// "returns a pointer to the contiguous A-length slab."
func (tn *Tensor) ReadCrossSectional(t, f int) ([]f16.Bits, error) {
	if !tn.inBounds(t, f, 0) {
		return nil, ErrFieldRange
	}
	start := tn.Address(t, f, 0)
	return tn.data[start : start+tn.A], nil
}

// DecodeCrossSectional is ReadCrossSectional plus decoding, a convenience
// for callers that want plain float32s instead of raw bit patterns.
func (tn *Tensor) DecodeCrossSectional(t, f int) ([]float32, error) {
	raw, err := tn.ReadCrossSectional(t, f)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(raw))
	for i, b := range raw {
		out[i] = b.ToFloat32()
	}
	return out, nil
}
