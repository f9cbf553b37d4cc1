package lob

import "lobrecon/infra/memory"

// lookupCell is where OrderLookup resolves an id to: a price (which level
// to look in) and that order's current slot inside the level's slice.
// The slot must be kept current across every swap-and-pop removal.
type lookupCell struct {
	price Price
	idx   int32
}

// OrderLookup maps a live OrderID to its resting location. It is a thin
// wrapper over infra/memory.HashMap so the engine never manipulates the
// pool-backed bucket chain directly.
type OrderLookup struct {
	m *memory.HashMap[OrderID, lookupCell]
}

func newOrderLookup() *OrderLookup {
	return &OrderLookup{m: memory.NewHashMap[OrderID, lookupCell](1<<14, hashOrderID)}
}

func hashOrderID(id OrderID) uint64 {
	// Fibonacci hashing: spreads the mostly-increasing exchange order-id
	// sequence across buckets instead of clustering it in a few.
	return uint64(id) * 11400714819323198485
}

func (l *OrderLookup) find(id OrderID) (Price, int32, bool) {
	cell, ok := l.m.Find(id)
	if !ok {
		return 0, 0, false
	}
	return cell.price, cell.idx, true
}

func (l *OrderLookup) insert(id OrderID, price Price, idx int32) {
	l.m.Insert(id, lookupCell{price: price, idx: idx})
}

func (l *OrderLookup) erase(id OrderID) {
	l.m.Erase(id)
}

// relocate updates id's recorded slot after a swap-and-pop moved it.
func (l *OrderLookup) relocate(id OrderID, price Price, idx int32) {
	l.m.Insert(id, lookupCell{price: price, idx: idx})
}

func (l *OrderLookup) reset() {
	l.m = memory.NewHashMap[OrderID, lookupCell](1<<14, hashOrderID)
}
