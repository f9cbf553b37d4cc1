package codec

import "encoding/binary"

// dictionaryMaxUnique is the ceiling on distinct values a column may have
// before dictionary coding falls back to raw storage: the per-value index
// is a single byte.
const dictionaryMaxUnique = 255

// encodeDictionary builds a table of unique values and stores one index
// byte per row. If the column carries more than dictionaryMaxUnique
// distinct values, it falls back to raw 8-byte-per-value storage with a
// leading zero byte as the "no dictionary" sentinel, mirroring
// dictionary_compressor.hpp.
func encodeDictionary(values []uint64) []byte {
	if len(values) == 0 {
		return nil
	}
	indexOf := make(map[uint64]int)
	unique := make([]uint64, 0, 64)
	for _, v := range values {
		if _, ok := indexOf[v]; ok {
			continue
		}
		if len(unique) >= dictionaryMaxUnique {
			return encodeDictionaryRaw(values)
		}
		indexOf[v] = len(unique)
		unique = append(unique, v)
	}

	out := make([]byte, 0, 1+len(unique)*8+len(values))
	out = append(out, byte(len(unique)))
	for _, v := range unique {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v)
		out = append(out, buf[:]...)
	}
	for _, v := range values {
		out = append(out, byte(indexOf[v]))
	}
	return out
}

func encodeDictionaryRaw(values []uint64) []byte {
	out := make([]byte, 1+len(values)*8)
	out[0] = 0
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[1+i*8:9+i*8], v)
	}
	return out
}

func decodeDictionary(data []byte, count int) ([]uint64, error) {
	if len(data) < 1 {
		return nil, ErrCorruptData
	}
	numUnique := int(data[0])
	pos := 1

	if numUnique == 0 {
		if pos+count*8 > len(data) {
			return nil, ErrCorruptData
		}
		out := make([]uint64, count)
		for i := 0; i < count; i++ {
			out[i] = binary.LittleEndian.Uint64(data[pos+i*8 : pos+i*8+8])
		}
		return out, nil
	}

	if pos+numUnique*8 > len(data) {
		return nil, ErrCorruptData
	}
	dict := make([]uint64, numUnique)
	for i := 0; i < numUnique; i++ {
		dict[i] = binary.LittleEndian.Uint64(data[pos+i*8 : pos+i*8+8])
	}
	pos += numUnique * 8

	if pos+count > len(data) {
		return nil, ErrCorruptData
	}
	out := make([]uint64, count)
	for i := 0; i < count; i++ {
		idx := int(data[pos+i])
		if idx >= numUnique {
			return nil, ErrCorruptData
		}
		out[i] = dict[idx]
	}
	return out, nil
}
