package feature

import "github.com/cockroachdb/errors"

// ErrPoolExhausted is returned by Pool.Acquire when every slot is already
// in_use, cs_done, or flushing.
var ErrPoolExhausted = errors.New("feature: tensor pool exhausted")

// ErrInvalidTransition marks an attempt to move a Slot across an edge the
// TensorLifecycleState DAG does not define.
var ErrInvalidTransition = errors.New("feature: invalid tensor lifecycle transition")

// ErrDateNotLoaded is returned by Store operations addressing a date that
// has no acquired slot in the pool.
var ErrDateNotLoaded = errors.New("feature: date has no acquired tensor slot")

// ErrFieldRange marks a write or read whose (t, f, a) falls outside the
// tensor's declared shape, or whose feature index falls outside the kind's
// schema-derived contiguous range.
var ErrFieldRange = errors.New("feature: index outside tensor or schema range")
