package codec

import "encoding/binary"

// encodeBitpackStatic packs every value into the schema's fixed bit width.
// Values that do not fit are truncated, same as bitpack_compressor.hpp's
// static variant: callers must ensure the schema's width actually bounds
// the column (spec's per-column bit widths are sized from real A-share
// value ranges).
func encodeBitpackStatic(values []uint64, bitWidth uint8) []byte {
	return packBits(values, bitWidth)
}

func decodeBitpackStatic(data []byte, count int, bitWidth uint8) []uint64 {
	return unpackBits(data, count, bitWidth)
}

// encodeBitpackDynamic picks a bit width from the 95th percentile of the
// column's values, packs everything at that width, and stores the handful
// of values above it in an overflow table of (index, value) pairs. Ported
// from bitpack_compressor.hpp's BitPackDynamicCompressor.
//
// wire format: [bitWidth:1][overflowCount:4 LE][packed bits][overflow pairs: (index:4 LE, value:8 LE)]
func encodeBitpackDynamic(values []uint64) []byte {
	if len(values) == 0 {
		return nil
	}
	p95 := percentile95(values)
	bitWidth := bitsNeeded(p95)
	maxPacked := uint64(1)<<bitWidth - 1

	packedValues := make([]uint64, len(values))
	copy(packedValues, values)

	type overflowEntry struct {
		index uint32
		value uint64
	}
	var overflow []overflowEntry
	for i, v := range values {
		if v > maxPacked {
			overflow = append(overflow, overflowEntry{index: uint32(i), value: v})
			packedValues[i] = maxPacked
		}
	}

	packed := packBits(packedValues, bitWidth)

	out := make([]byte, 5+len(packed)+len(overflow)*12)
	out[0] = bitWidth
	binary.LittleEndian.PutUint32(out[1:5], uint32(len(overflow)))
	copy(out[5:], packed)
	pos := 5 + len(packed)
	for _, e := range overflow {
		binary.LittleEndian.PutUint32(out[pos:pos+4], e.index)
		binary.LittleEndian.PutUint64(out[pos+4:pos+12], e.value)
		pos += 12
	}
	return out
}

func decodeBitpackDynamic(data []byte, count int) ([]uint64, error) {
	if len(data) < 5 {
		return nil, ErrCorruptData
	}
	bitWidth := data[0]
	overflowCount := int(binary.LittleEndian.Uint32(data[1:5]))

	packedBytes := (count*int(bitWidth) + 7) / 8
	pos := 5
	if pos+packedBytes > len(data) {
		return nil, ErrCorruptData
	}
	values := unpackBits(data[pos:pos+packedBytes], count, bitWidth)
	pos += packedBytes

	for i := 0; i < overflowCount; i++ {
		if pos+12 > len(data) {
			return nil, ErrCorruptData
		}
		idx := binary.LittleEndian.Uint32(data[pos : pos+4])
		val := binary.LittleEndian.Uint64(data[pos+4 : pos+12])
		if int(idx) >= count {
			return nil, ErrCorruptData
		}
		values[idx] = val
		pos += 12
	}
	return values, nil
}
