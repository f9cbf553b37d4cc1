package lob

// anomalyGapTicks is how many price ticks from the top of book a level's
// sign must disagree with its implied side before it is reported, per §7.
const anomalyGapTicks = 5

// Engine is the deduction state machine for one instrument's event stream.
// It is single-writer: callers serialize Apply calls themselves (the
// pipeline orchestrator gives each instrument its own worker).
type Engine struct {
	AD    AssetDate
	Venue Venue

	book     *PriceBook
	lookup   *OrderLookup
	deferred *DeferredQueue
	tob      TOB

	observer Observer
	sink     FeatureSink

	reported map[Price]bool
	lastTick uint32
	flushed  bool
}

func NewEngine(ad AssetDate, venue Venue) *Engine {
	return &Engine{
		AD:       ad,
		Venue:    venue,
		book:     NewPriceBook(),
		lookup:   newOrderLookup(),
		deferred: newDeferredQueue(),
		observer: NopObserver{},
		sink:     NopFeatureSink{},
		reported: make(map[Price]bool),
	}
}

func (en *Engine) SetObserver(o Observer) { en.observer = o }
func (en *Engine) SetFeatureSink(s FeatureSink) { en.sink = s }

func (en *Engine) TOB() TOB { return en.tob }

// Apply folds one event into the book, then — for every event that was
// neither silently ignored nor rejected — invokes the feature sink with
// the post-event book snapshot.
func (en *Engine) Apply(e Event) error {
	accepted, err := en.apply(e)
	if err != nil {
		return err
	}
	if accepted {
		en.sink.OnEvent(en.AD, e.packedTick(), e, en.Snapshot())
	}
	return nil
}

func (en *Engine) apply(e Event) (accepted bool, err error) {
	if e.Type == EventChange {
		return false, ErrUnsupportedEventType
	}

	targetID, hasTarget := e.targetID()
	signedVol := e.signedVolume()
	if !hasTarget || targetID == 0 || signedVol == 0 {
		return false, nil
	}

	tick := e.packedTick()
	en.lastTick = tick

	if tick >= tickContinuousStart && !en.flushed {
		en.flushCallAuction()
		en.flushed = true
	}

	// Ordering policy: the deferred queue is always consulted first. If a
	// matching entry exists, this event resolves against it and the live
	// book is never touched directly for this event.
	if entry, ok := en.deferred.get(targetID); ok {
		if err := en.mergeWithDeferred(targetID, entry, e, signedVol); err != nil {
			return false, err
		}
		return true, nil
	}

	isBid := targetIsBid(e)

	if e.Type == EventCancel && e.Price == 0 {
		if !en.Venue.AllowZeroPriceCancel {
			return false, ErrZeroPriceCancelRefused
		}
		if price, idx, ok := en.lookup.find(targetID); ok {
			if err := en.applyAtPrice(targetID, price, idx, signedVol); err != nil {
				return false, err
			}
			return true, nil
		}
		en.deferred.put(targetID, DeferredEntry{
			SignedVolume: signedVol, ReportedPrice: 0, Timestamp: tick,
			Reason: ReasonZeroPriceCancel, IsBid: isBid,
		})
		return true, nil
	}

	if e.Type == EventMaker && e.Price == 0 {
		en.deferred.put(targetID, DeferredEntry{
			SignedVolume: signedVol, ReportedPrice: 0, Timestamp: tick,
			Reason: ReasonSpecialMaker, IsBid: isBid,
		})
		return true, nil
	}

	if e.Type == EventMaker && isCallAuctionWindow(classifyWindow(tick)) {
		en.deferred.put(targetID, DeferredEntry{
			SignedVolume: signedVol, ReportedPrice: e.Price, Timestamp: tick,
			Reason: ReasonCallAuction, IsBid: isBid,
		})
		return true, nil
	}

	if e.Type == EventTaker || e.Type == EventCancel {
		price, idx, ok := en.lookup.find(targetID)
		if !ok {
			en.deferred.put(targetID, DeferredEntry{
				SignedVolume: signedVol, ReportedPrice: e.Price, Timestamp: tick,
				Reason: ReasonOutOfOrder, IsBid: isBid,
			})
			return true, nil
		}
		if err := en.applyAtPrice(targetID, price, idx, signedVol); err != nil {
			return false, err
		}
		return true, nil
	}

	// Fast path: a maker in continuous session with a real price. Create
	// the order if this id has never been seen, otherwise top it up.
	if price, idx, ok := en.lookup.find(targetID); ok {
		if err := en.applyAtPrice(targetID, price, idx, signedVol); err != nil {
			return false, err
		}
		return true, nil
	}
	en.createOrder(targetID, e.Price, signedVol)
	return true, nil
}

// mergeWithDeferred implements §4.1's unified deduction rule: combine the
// deferred entry's signed volume with the newly arriving one, then decide
// whether a maker remainder persists, using whichever side of the pair is
// actually a maker event as the sign of reference. If neither side is a
// maker yet (two non-maker events chasing the same missing counterparty),
// the combined volume simply keeps waiting in the same queue slot.
func (en *Engine) mergeWithDeferred(id OrderID, entry DeferredEntry, e Event, signedVol Quantity) error {
	combined := entry.SignedVolume + signedVol
	entryIsMaker := entry.Reason == ReasonCallAuction || entry.Reason == ReasonSpecialMaker
	newIsMaker := e.Type == EventMaker

	if !entryIsMaker && !newIsMaker {
		entry.SignedVolume = combined
		entry.Timestamp = e.packedTick()
		en.deferred.put(id, entry)
		return nil
	}

	var makerSign Quantity
	var price Price
	var isBidMaker bool
	if entryIsMaker {
		makerSign, price, isBidMaker = sign(entry.SignedVolume), entry.ReportedPrice, entry.IsBid
	} else {
		makerSign, price, isBidMaker = sign(signedVol), e.Price, e.Side == SideBid
	}

	en.deferred.delete(id)

	if combined == 0 || sign(combined) != makerSign {
		if p, idx, ok := en.lookup.find(id); ok {
			return en.removeOrder(id, p, idx)
		}
		return nil
	}

	if p, idx, ok := en.lookup.find(id); ok {
		return en.setOrderQty(id, p, idx, combined)
	}
	en.createOrderAt(id, price, combined, isBidMaker)
	return nil
}

// flushCallAuction materializes every still-queued call_auction entry into
// the book at its reported price, per §8's 09:30:00 boundary behavior.
func (en *Engine) flushCallAuction() {
	en.deferred.forEachReason(ReasonCallAuction, func(id OrderID, e DeferredEntry) bool {
		en.createOrderAt(id, e.ReportedPrice, e.SignedVolume, e.IsBid)
		return true
	})
	en.recomputeTOB()
}

func (en *Engine) applyAtPrice(id OrderID, price Price, idx int32, delta Quantity) error {
	lvl := en.book.Get(price)
	if lvl == nil || int(idx) >= lvl.OrderCount() || lvl.orders[idx].ID != id {
		return ErrInvariantViolated
	}
	newQty := lvl.adjust(int(idx), delta)
	if newQty == 0 {
		return en.removeOrder(id, price, idx)
	}
	en.book.syncVisibility(price)
	en.checkAnomaly(lvl)
	return nil
}

func (en *Engine) setOrderQty(id OrderID, price Price, idx int32, qty Quantity) error {
	lvl := en.book.Get(price)
	if lvl == nil || int(idx) >= lvl.OrderCount() || lvl.orders[idx].ID != id {
		return ErrInvariantViolated
	}
	delta := qty - lvl.orders[idx].Qty
	if qty == 0 {
		return en.removeOrder(id, price, idx)
	}
	lvl.adjust(int(idx), delta)
	en.book.syncVisibility(price)
	en.checkAnomaly(lvl)
	return nil
}

func (en *Engine) removeOrder(id OrderID, price Price, idx int32) error {
	lvl := en.book.Get(price)
	if lvl == nil || int(idx) >= lvl.OrderCount() || lvl.orders[idx].ID != id {
		return ErrInvariantViolated
	}
	_, displacedID, displaced := lvl.removeAt(int(idx))
	en.lookup.erase(id)
	if displaced {
		en.lookup.relocate(displacedID, price, idx)
	}

	if lvl.OrderCount() == 0 {
		wasBid := en.tob.BestBid == price
		wasAsk := en.tob.BestAsk == price
		en.book.removeLevel(price)
		if wasBid {
			en.advanceBid(price)
		}
		if wasAsk {
			en.advanceAsk(price)
		}
		return nil
	}
	en.book.syncVisibility(price)
	en.checkAnomaly(lvl)
	return nil
}

func (en *Engine) createOrder(id OrderID, price Price, qty Quantity) {
	lvl := en.book.GetOrCreate(price)
	idx := int32(lvl.OrderCount())
	lvl.add(Order{ID: id, Qty: qty})
	en.lookup.insert(id, price, idx)
	en.book.syncVisibility(price)
	en.updateTOBOnCreate(price, qty)
	en.checkAnomaly(lvl)
}

func (en *Engine) createOrderAt(id OrderID, price Price, qty Quantity, _ bool) {
	en.createOrder(id, price, qty)
}

// updateTOBOnCreate keeps the cached best price current without a bitmap
// scan: a brand-new order only ever improves or bootstraps its own side.
func (en *Engine) updateTOBOnCreate(price Price, qty Quantity) {
	switch {
	case qty > 0 && (en.tob.BestBid == 0 || price > en.tob.BestBid):
		en.tob.BestBid = price
	case qty < 0 && (en.tob.BestAsk == 0 || price < en.tob.BestAsk):
		en.tob.BestAsk = price
	}
}

// advanceBid scans downward from the just-emptied bid price for the next
// visible level whose net quantity is still bid-signed.
func (en *Engine) advanceBid(emptied Price) {
	cur := emptied
	for {
		prev, ok := en.book.PrevVisible(cur)
		if !ok {
			en.tob.BestBid = 0
			return
		}
		if lvl := en.book.Get(prev); lvl != nil && lvl.Net > 0 {
			en.tob.BestBid = prev
			return
		}
		cur = prev
	}
}

// advanceAsk is advanceBid's mirror for the ask side.
func (en *Engine) advanceAsk(emptied Price) {
	cur := emptied
	for {
		next, ok := en.book.NextVisible(cur)
		if !ok {
			en.tob.BestAsk = 0
			return
		}
		if lvl := en.book.Get(next); lvl != nil && lvl.Net < 0 {
			en.tob.BestAsk = next
			return
		}
		cur = next
	}
}

// recomputeTOB rescans the whole visible bitmap. Used only after a
// disturbance large enough that the incremental rules above aren't
// trustworthy: the call-auction flush materializes many levels at once.
func (en *Engine) recomputeTOB() {
	en.tob.BestBid, en.tob.BestAsk = 0, 0
	if p, ok := en.book.Highest(); ok {
		cur := p
		for {
			if lvl := en.book.Get(cur); lvl != nil && lvl.Net > 0 {
				en.tob.BestBid = cur
				break
			}
			prev, ok := en.book.PrevVisible(cur)
			if !ok {
				break
			}
			cur = prev
		}
	}
	if p, ok := en.book.Lowest(); ok {
		cur := p
		for {
			if lvl := en.book.Get(cur); lvl != nil && lvl.Net < 0 {
				en.tob.BestAsk = cur
				break
			}
			next, ok := en.book.NextVisible(cur)
			if !ok {
				break
			}
			cur = next
		}
	}
	en.tob.dirty = false
}

// checkAnomaly implements §7's diagnostic: a level whose sign disagrees
// with the side implied by its distance from the top of book, five ticks
// or more, during continuous trading only. Reported at most once per
// level per day.
func (en *Engine) checkAnomaly(lvl *Level) {
	if !isContinuousTick(en.lastTick) || en.reported[lvl.Price] {
		return
	}
	switch {
	case en.tob.BestAsk != 0 && int(lvl.Price) >= int(en.tob.BestAsk)+anomalyGapTicks && lvl.Net > 0:
		en.reported[lvl.Price] = true
		en.observer.AnomalyDetected(en.AD, lvl.Price)
	case en.tob.BestBid != 0 && int(en.tob.BestBid) >= anomalyGapTicks &&
		int(lvl.Price) <= int(en.tob.BestBid)-anomalyGapTicks && lvl.Net < 0:
		en.reported[lvl.Price] = true
		en.observer.AnomalyDetected(en.AD, lvl.Price)
	}
}

// Snapshot exposes up to five levels per side for feature computation,
// per §2's supplemented trigger point.
func (en *Engine) Snapshot() BookSnapshot {
	snap := BookSnapshot{BestBid: en.tob.BestBid, BestAsk: en.tob.BestAsk}

	cur, ok := en.tob.BestBid, en.tob.BestBid != 0
	for i := 0; ok && i < len(snap.BidLevels); i++ {
		lvl := en.book.Get(cur)
		if lvl == nil {
			break
		}
		snap.BidLevels[i] = PriceLevel{Price: lvl.Price, Net: lvl.Net, Orders: lvl.OrderCount()}
		cur, ok = en.book.PrevVisible(cur)
	}

	cur, ok = en.tob.BestAsk, en.tob.BestAsk != 0
	for i := 0; ok && i < len(snap.AskLevels); i++ {
		lvl := en.book.Get(cur)
		if lvl == nil {
			break
		}
		snap.AskLevels[i] = PriceLevel{Price: lvl.Price, Net: lvl.Net, Orders: lvl.OrderCount()}
		cur, ok = en.book.NextVisible(cur)
	}

	return snap
}

// Reset implements the Clear/Reset operation: every level, the lookup, the
// deferred queue, the bitmap and the TOB are emptied, but the compressed
// event log this engine produced is untouched.
func (en *Engine) Reset() {
	en.book.reset()
	en.lookup.reset()
	en.deferred.reset()
	en.tob.reset()
	en.reported = make(map[Price]bool)
	en.flushed = false
	en.lastTick = 0
}

func targetIsBid(e Event) bool {
	switch {
	case e.Type == EventMaker || e.Type == EventCancel:
		return e.Side == SideBid
	case e.Type == EventTaker:
		return e.Side == SideAsk // taker(ask) targets the counterparty bid maker
	default:
		return false
	}
}

func sign(q Quantity) Quantity {
	switch {
	case q > 0:
		return 1
	case q < 0:
		return -1
	default:
		return 0
	}
}
