package lob

// Price is a tick price in units of 0.01 of the local currency. Zero is the
// sentinel for "unknown price" — a special maker or a zero-price cancel.
type Price uint16

// Quantity is a signed resting size: positive on the bid side, negative on
// the ask side. A level's side is derived from the sign of its net
// quantity, never stored separately.
type Quantity int32

// OrderID identifies one resting order. Bid-side and ask-side ids never
// collide within one instrument's event stream.
type OrderID uint32

// Order is one deduction cell living inside a Level's order slice.
type Order struct {
	ID  OrderID
	Qty Quantity
}

// Level is the set of resting orders at one price. Net is the sum of every
// order's Qty; OrderCount is len(orders) by construction, never a field
// that could drift out of sync.
type Level struct {
	Price Price
	Net   Quantity
	orders []Order
}

func (l *Level) OrderCount() int { return len(l.orders) }

// find returns the slice index of id, or -1.
func (l *Level) find(id OrderID) int {
	for i, o := range l.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// add appends a new resting order and folds its quantity into Net.
func (l *Level) add(o Order) {
	l.orders = append(l.orders, o)
	l.Net += o.Qty
}

// adjust changes an existing order's quantity by delta and returns the
// order's new quantity. idx must be a valid index into l.orders.
func (l *Level) adjust(idx int, delta Quantity) Quantity {
	l.orders[idx].Qty += delta
	l.Net += delta
	return l.orders[idx].Qty
}

// removeAt deletes the order at idx via swap-and-pop: the last order in the
// slice moves into idx, so any lookup entry pointing at the last slot must
// be updated to idx. displaced is false when no order was actually moved
// (idx was already the last slot).
func (l *Level) removeAt(idx int) (removedID OrderID, displacedID OrderID, displaced bool) {
	removed := l.orders[idx]
	l.Net -= removed.Qty
	last := len(l.orders) - 1
	if idx != last {
		l.orders[idx] = l.orders[last]
		displacedID = l.orders[idx].ID
		displaced = true
	}
	l.orders = l.orders[:last]
	return removed.ID, displacedID, displaced
}
