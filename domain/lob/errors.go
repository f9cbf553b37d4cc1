package lob

import "github.com/cockroachdb/errors"

// ErrUnsupportedEventType is returned by Apply for EventChange: the order
// schema reserves type 2 for it, but no venue this system targets emits a
// row the engine can interpret as a change, so it is refused rather than
// guessed at (§9 open question).
var ErrUnsupportedEventType = errors.New("lob: unsupported event type: change")

// ErrZeroPriceCancelRefused is returned when a cancel with price == 0
// arrives on a Venue configured with AllowZeroPriceCancel == false.
var ErrZeroPriceCancelRefused = errors.New("lob: zero-price cancel refused by venue")

// ErrInvariantViolated marks a programmer error per §7: an event that
// would leave order_count out of sync with len(orders), or any other
// violation of §3's invariants. Apply refuses the operation and returns
// this error rather than letting state corrupt silently;
// pipeline.SequentialWorker stops replaying that date and records it as
// failed.
var ErrInvariantViolated = errors.New("lob: invariant violated")
