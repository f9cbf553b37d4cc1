package pipeline

import "github.com/cockroachdb/errors"

// ErrNoRows is returned by a RowSource when an (asset, date) pair has no
// order rows to decode, distinct from a read failure.
var ErrNoRows = errors.New("pipeline: no rows for asset/date")

// ErrUnassigned marks an asset code AssignWorkers never placed on any
// worker, which the sequential phase treats as a bookkeeping bug rather
// than silently skipping the asset.
var ErrUnassigned = errors.New("pipeline: asset has no worker assignment")
