package lob

// TOB is the cached top-of-book. updateTOBOnCreate and advanceBid/advanceAsk
// keep it current incrementally; recomputeTOB rebuilds it from the visible
// bitmap only after the call-auction flush, and clears dirty. reset sets
// dirty; no update path reads the flag.
type TOB struct {
	BestBid Price
	BestAsk Price
	dirty   bool
}

func (t *TOB) markDirty() { t.dirty = true }

func (t *TOB) reset() {
	*t = TOB{dirty: true}
}
