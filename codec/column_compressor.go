package codec

// CodecChoice selects which algorithm EncodeColumn uses. ChoiceAuto runs
// encodeCustom's try-everything-keep-smallest search; the others force a
// specific codec, mainly for tests and for columns whose distribution is
// known well enough to skip the search (the event log defaults every
// column to ChoiceAuto).
type CodecChoice int

const (
	ChoiceAuto CodecChoice = iota
	ChoiceNone
	ChoiceRLE
	ChoiceDictionary
	ChoiceBitpackStatic
	ChoiceBitpackDynamic
)

// EncodeColumn runs one column's pipeline: optional delta transform, sign
// mapping, then codec selection. It returns the algorithm actually used
// (ChoiceAuto always resolves to a concrete one) and the encoded body.
func EncodeColumn(col Column, raw []int64, choice CodecChoice) (Algorithm, []byte) {
	values := transformToUint64(col, raw)

	switch choice {
	case ChoiceNone:
		return AlgoNone, encodeNone(values)
	case ChoiceRLE:
		return AlgoRLE, encodeRLE(values)
	case ChoiceDictionary:
		return AlgoDictionary, encodeDictionary(values)
	case ChoiceBitpackStatic:
		return AlgoBitpackStatic, encodeBitpackStatic(values, col.BitWidth)
	case ChoiceBitpackDynamic:
		return AlgoBitpackDynamic, encodeBitpackDynamic(values)
	default:
		body := encodeCustom(values)
		if len(body) == 0 {
			return AlgoNone, nil
		}
		return Algorithm(body[0]), body[1:]
	}
}

// DecodeColumn reverses EncodeColumn: it decodes the body with the given
// algorithm, then undoes sign mapping and delta accumulation.
func DecodeColumn(col Column, algo Algorithm, body []byte, count int) ([]int64, error) {
	values, err := decodeByAlgorithm(algo, body, count, col.BitWidth)
	if err != nil {
		return nil, err
	}
	return transformFromUint64(col, values), nil
}

func transformToUint64(col Column, raw []int64) []uint64 {
	vals := make([]int64, len(raw))
	copy(vals, raw)
	if col.UseDelta {
		for i := len(vals) - 1; i > 0; i-- {
			vals[i] = vals[i] - vals[i-1]
		}
	}

	out := make([]uint64, len(vals))
	for i, v := range vals {
		if col.Signed {
			out[i] = zigzagEncode(v)
		} else {
			out[i] = uint64(v)
		}
	}
	return out
}

func transformFromUint64(col Column, vals []uint64) []int64 {
	out := make([]int64, len(vals))
	for i, v := range vals {
		if col.Signed {
			out[i] = zigzagDecode(v)
		} else {
			out[i] = int64(v)
		}
	}
	if col.UseDelta {
		for i := 1; i < len(out); i++ {
			out[i] = out[i] + out[i-1]
		}
	}
	return out
}
