package lob

import "lobrecon/infra/memory"

// PriceBook indexes every live Level by price. Price is a bounded uint16
// here (unlike the teacher's arbitrary int64 price), so a direct array
// beats a balanced tree: lookup is one index, and the visible-price bitmap
// already gives next/prev in O(1) words.
type PriceBook struct {
	levels  [65536]*Level
	visible memory.FastBitmap
}

func NewPriceBook() *PriceBook {
	return &PriceBook{}
}

// GetOrCreate returns the level at price, allocating an empty one if this
// is the first reference. The level is not marked visible until its net
// quantity becomes nonzero — see syncVisibility.
func (b *PriceBook) GetOrCreate(price Price) *Level {
	if b.levels[price] == nil {
		b.levels[price] = &Level{Price: price}
	}
	return b.levels[price]
}

// Get returns the level at price, or nil if none has ever been created.
func (b *PriceBook) Get(price Price) *Level {
	return b.levels[price]
}

// syncVisibility sets or clears the bitmap bit for price to match whether
// its level currently has nonzero net quantity, per §3's bitmap invariant.
func (b *PriceBook) syncVisibility(price Price) {
	lvl := b.levels[price]
	if lvl != nil && lvl.Net != 0 {
		b.visible.Set(uint16(price))
	} else {
		b.visible.Clear(uint16(price))
	}
}

// removeLevel drops the level entirely once its order count reaches zero,
// per §4.1's level lifecycle rule.
func (b *PriceBook) removeLevel(price Price) {
	b.levels[price] = nil
	b.visible.Clear(uint16(price))
}

// NextVisible returns the first visible price strictly above price, or
// (0, false) if none exists.
func (b *PriceBook) NextVisible(price Price) (Price, bool) {
	idx := b.visible.FindNext(int(price))
	if idx >= 65536 {
		return 0, false
	}
	return Price(idx), true
}

// PrevVisible returns the first visible price strictly below price, or
// (0, false) if none exists.
func (b *PriceBook) PrevVisible(price Price) (Price, bool) {
	idx := b.visible.FindPrev(int(price))
	if idx < 0 {
		return 0, false
	}
	return Price(idx), true
}

// Highest returns the highest visible price in the whole book, or
// (0, false) if nothing is visible. Used only for a full TOB recompute.
func (b *PriceBook) Highest() (Price, bool) {
	idx := b.visible.FindPrev(65536)
	if idx < 0 {
		return 0, false
	}
	return Price(idx), true
}

// Lowest is Highest's mirror for the bottom of the book.
func (b *PriceBook) Lowest() (Price, bool) {
	idx := b.visible.FindNext(-1)
	if idx >= 65536 {
		return 0, false
	}
	return Price(idx), true
}

// reset clears every level and the bitmap, preparing the book for a new
// trading day. Levels are dropped (set to nil), not reused, since the next
// day's price distribution may differ entirely.
func (b *PriceBook) reset() {
	for i := range b.levels {
		b.levels[i] = nil
	}
	b.visible.Reset()
}
