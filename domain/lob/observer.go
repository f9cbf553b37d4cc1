package lob

// AssetDate identifies one instrument's reconstruction for one trading
// day, the unit every diagnostic and feature callback is scoped to.
type AssetDate struct {
	Asset string
	Date  string // YYYYMMDD
}

// Observer receives engine diagnostics. AnomalyDetected fires at most once
// per level per day — the engine tracks which levels it has already
// reported and clears that memory on Reset.
type Observer interface {
	AnomalyDetected(ad AssetDate, price Price)
}

// NopObserver discards every diagnostic; it is the Engine default.
type NopObserver struct{}

func (NopObserver) AnomalyDetected(AssetDate, Price) {}

// BookSnapshot is what the engine exposes to a FeatureSink after every
// accepted event: enough of the book state to compute mid-price,
// micro-price, imbalance and multi-level variants, without exposing the
// engine's internal pools. Levels are ordered best-to-worst; PriceLevel
// mirrors one rung of a Level without letting the sink mutate it.
type PriceLevel struct {
	Price  Price
	Net    Quantity
	Orders int
}

type BookSnapshot struct {
	BestBid, BestAsk Price
	BidLevels        [5]PriceLevel // best-to-worst, zero-value entries mean "no level"
	AskLevels        [5]PriceLevel
}

// FeatureSink receives the triggering event and the resulting BookSnapshot
// after every event the engine actually accepted (never after an ignored or
// rejected one; an event placed on the deferred queue counts as accepted
// and fires the sink). The event is passed through unchanged so a sink can derive
// trade-flow signals (direction, volume) that are not recoverable from the
// snapshot alone; the formulas a sink computes from either are out of scope
// here — this package only specifies the trigger point and the data
// available at it.
type FeatureSink interface {
	OnEvent(ad AssetDate, tick uint32, e Event, snap BookSnapshot)
}

// NopFeatureSink discards every callback; it is the Engine default.
type NopFeatureSink struct{}

func (NopFeatureSink) OnEvent(AssetDate, uint32, Event, BookSnapshot) {}
