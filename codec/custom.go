package codec

import "encoding/binary"

// Algorithm identifies the coding scheme a column body was written with.
// Values match the candidate order custom_compressor.hpp's AutoSelectCompressor
// tries, so an auto-selected body's leading byte decodes the same way here.
type Algorithm uint8

const (
	AlgoRLE Algorithm = iota
	AlgoDictionary
	AlgoBitpackDynamic
	AlgoNone
	AlgoBitpackStatic
	algorithmCount
)

func (a Algorithm) String() string {
	switch a {
	case AlgoRLE:
		return "rle"
	case AlgoDictionary:
		return "dictionary"
	case AlgoBitpackDynamic:
		return "bitpack_dynamic"
	case AlgoNone:
		return "none"
	case AlgoBitpackStatic:
		return "bitpack_static"
	default:
		return "unknown"
	}
}

// encodeNone stores every value as a raw little-endian uint64. It is the
// always-available fallback when nothing else beats it.
func encodeNone(values []uint64) []byte {
	out := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], v)
	}
	return out
}

func decodeNone(data []byte, count int) ([]uint64, error) {
	if len(data) < count*8 {
		return nil, ErrCorruptData
	}
	out := make([]uint64, count)
	for i := 0; i < count; i++ {
		out[i] = binary.LittleEndian.Uint64(data[i*8 : i*8+8])
	}
	return out, nil
}

// encodeCustom tries RLE, dictionary, dynamic bitpack and raw storage and
// keeps whichever is smallest, prepending one algorithm-index byte so
// decodeCustom knows which codec to invert. Ordering and candidate set
// follow AutoSelectCompressor exactly.
func encodeCustom(values []uint64) []byte {
	if len(values) == 0 {
		return nil
	}

	type candidate struct {
		algo Algorithm
		body []byte
	}
	candidates := []candidate{
		{AlgoRLE, encodeRLE(values)},
	}
	if len(values) <= 10000 {
		candidates = append(candidates, candidate{AlgoDictionary, encodeDictionary(values)})
	}
	candidates = append(candidates,
		candidate{AlgoBitpackDynamic, encodeBitpackDynamic(values)},
		candidate{AlgoNone, encodeNone(values)},
	)

	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c.body) < len(best.body) {
			best = c
		}
	}

	out := make([]byte, 1+len(best.body))
	out[0] = byte(best.algo)
	copy(out[1:], best.body)
	return out
}

func decodeCustom(data []byte, count int) ([]uint64, error) {
	if len(data) < 1 {
		return nil, ErrCorruptData
	}
	algo := Algorithm(data[0])
	body := data[1:]
	return decodeByAlgorithm(algo, body, count, 0)
}

// decodeByAlgorithm dispatches to the codec named by algo. bitWidth is only
// consulted for AlgoBitpackStatic, whose width lives in the column schema
// rather than on the wire.
func decodeByAlgorithm(algo Algorithm, body []byte, count int, bitWidth uint8) ([]uint64, error) {
	switch algo {
	case AlgoRLE:
		return decodeRLE(body, count)
	case AlgoDictionary:
		return decodeDictionary(body, count)
	case AlgoBitpackDynamic:
		return decodeBitpackDynamic(body, count)
	case AlgoNone:
		return decodeNone(body, count)
	case AlgoBitpackStatic:
		return decodeBitpackStatic(body, count, bitWidth), nil
	default:
		return nil, errorsWrapUnknownAlgorithm(algo)
	}
}
