package codec

import "github.com/cockroachdb/errors"

// ErrCorruptData is returned by Decode/EventLog reads when a compressed
// block is truncated or carries an algorithm index outside the known set.
// Decode never panics on malformed input; it always returns this sentinel
// (wrapped with context) instead.
var ErrCorruptData = errors.New("codec: corrupt data")

// ErrUnknownAlgorithm marks the error a decode returns when it encounters an
// algorithm byte this build does not recognize. That error wraps
// ErrCorruptData, so errors.Is(err, ErrCorruptData) holds with the standard
// library as well as with cockroachdb/errors; errors.Is(err,
// ErrUnknownAlgorithm) holds with cockroachdb/errors.
var ErrUnknownAlgorithm = errors.New("codec: unknown algorithm")

func errorsWrapUnknownAlgorithm(algo Algorithm) error {
	err := errors.Wrapf(ErrCorruptData, "unknown algorithm index %d", uint8(algo))
	return errors.Mark(err, ErrUnknownAlgorithm)
}
