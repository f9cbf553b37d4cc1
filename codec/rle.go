package codec

import "encoding/binary"

// encodeRLE packs values as (runLength byte, value uint64) pairs. A run
// never exceeds 255 repeats, matching rle_compressor.hpp's single-byte run
// length field. Optimal for columns with long stretches of the same value
// (volume and turnover are mostly zero between trades).
func encodeRLE(values []uint64) []byte {
	if len(values) == 0 {
		return nil
	}
	out := make([]byte, 0, len(values)*9/4)
	i := 0
	for i < len(values) {
		run := 1
		for run < 255 && i+run < len(values) && values[i+run] == values[i] {
			run++
		}
		out = append(out, byte(run))
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], values[i])
		out = append(out, buf[:]...)
		i += run
	}
	return out
}

func decodeRLE(data []byte, count int) ([]uint64, error) {
	out := make([]uint64, 0, count)
	pos := 0
	for len(out) < count {
		if pos+9 > len(data) {
			return nil, ErrCorruptData
		}
		run := int(data[pos])
		v := binary.LittleEndian.Uint64(data[pos+1 : pos+9])
		pos += 9
		for j := 0; j < run && len(out) < count; j++ {
			out = append(out, v)
		}
	}
	return out, nil
}
