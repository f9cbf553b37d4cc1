package pipeline

// RowSource supplies already-parsed snapshot and order rows for one
// (asset, date), in codec.SnapshotSchema/codec.OrderSchema column order.
// CSV parsing and archive extraction are out of scope for this package —
// callers wire a RowSource over whatever upstream format actually produced
// the rows.
type RowSource interface {
	Rows(asset, date string) (snapshotRows, orderRows [][]int64, err error)
}
