package lob

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func mk(typ EventType, side Side, price Price, vol Quantity, bid, ask OrderID, h, m, s uint8) Event {
	return Event{
		Hour: h, Minute: m, Second: s,
		Type: typ, Side: side, Price: price, Volume: vol,
		BidOrderID: bid, AskOrderID: ask,
	}
}

func continuous() (uint8, uint8, uint8) { return 10, 0, 0 }

type recordingObserver struct {
	fired []Price
}

func (r *recordingObserver) AnomalyDetected(_ AssetDate, p Price) {
	r.fired = append(r.fired, p)
}

type recordingSink struct {
	calls int
}

func (r *recordingSink) OnEvent(AssetDate, uint32, Event, BookSnapshot) { r.calls++ }

func newTestEngine() *Engine {
	return NewEngine(AssetDate{Asset: "600000", Date: "2026-08-06"}, DefaultVenue())
}

func TestSimpleMakerThenFullTaker(t *testing.T) {
	en := newTestEngine()
	h, m, s := continuous()

	if err := en.Apply(mk(EventMaker, SideBid, 100, 10, 1, 0, h, m, s)); err != nil {
		t.Fatalf("maker: %v", err)
	}
	if en.TOB().BestBid != 100 {
		t.Fatalf("best bid = %d, want 100", en.TOB().BestBid)
	}

	if err := en.Apply(mk(EventTaker, SideAsk, 0, 10, 1, 0, h, m, s)); err != nil {
		t.Fatalf("taker: %v", err)
	}
	if en.TOB().BestBid != 0 {
		t.Fatalf("best bid after full consumption = %d, want 0", en.TOB().BestBid)
	}
	if lvl := en.book.Get(100); lvl != nil {
		t.Fatalf("level at 100 should have been removed, got %+v", lvl)
	}
}

func TestPartialTakerLeavesLevelAndTOBInPlace(t *testing.T) {
	en := newTestEngine()
	h, m, s := continuous()

	must(t, en.Apply(mk(EventMaker, SideBid, 100, 10, 1, 0, h, m, s)))
	must(t, en.Apply(mk(EventTaker, SideAsk, 0, 4, 1, 0, h, m, s)))

	if en.TOB().BestBid != 100 {
		t.Fatalf("best bid = %d, want 100", en.TOB().BestBid)
	}
	lvl := en.book.Get(100)
	if lvl == nil || lvl.Net != 6 {
		t.Fatalf("level = %+v, want net 6", lvl)
	}
}

func TestOutOfOrderTakerThenMaker(t *testing.T) {
	en := newTestEngine()
	h, m, s := continuous()

	// taker(bid) arrives before its counterparty ask maker id=5 exists.
	must(t, en.Apply(mk(EventTaker, SideBid, 2000, 3, 0, 5, h, m, s)))
	if en.deferred.len() != 1 {
		t.Fatalf("deferred len = %d, want 1", en.deferred.len())
	}
	entry, ok := en.deferred.get(5)
	if !ok || entry.Reason != ReasonOutOfOrder || entry.SignedVolume != 3 {
		t.Fatalf("deferred entry = %+v, ok=%v", entry, ok)
	}

	must(t, en.Apply(mk(EventMaker, SideAsk, 2000, 10, 0, 5, h, m, s)))
	if en.deferred.len() != 0 {
		t.Fatalf("deferred should be empty, len = %d", en.deferred.len())
	}
	lvl := en.book.Get(2000)
	if lvl == nil || lvl.Net != -7 {
		t.Fatalf("level = %+v, want net -7", lvl)
	}
}

func TestCallAuctionFlushAt0930(t *testing.T) {
	en := newTestEngine()

	must(t, en.Apply(mk(EventMaker, SideBid, 100, 10, 1, 0, 9, 20, 0)))
	entry, ok := en.deferred.get(1)
	if !ok || entry.Reason != ReasonCallAuction {
		t.Fatalf("expected a call-auction deferral, got %+v ok=%v", entry, ok)
	}

	must(t, en.Apply(mk(EventMaker, SideBid, 101, 5, 2, 0, 9, 30, 0)))

	if en.deferred.len() != 0 {
		t.Fatalf("deferred should be drained by the flush, len = %d", en.deferred.len())
	}
	if lvl := en.book.Get(100); lvl == nil || lvl.Net != 10 {
		t.Fatalf("flushed level at 100 = %+v", lvl)
	}
	if lvl := en.book.Get(101); lvl == nil || lvl.Net != 5 {
		t.Fatalf("level at 101 from the triggering event = %+v", lvl)
	}
}

func TestZeroPriceCancelKnownMakerAppliesDirectly(t *testing.T) {
	en := newTestEngine()
	h, m, s := continuous()

	must(t, en.Apply(mk(EventMaker, SideBid, 100, 10, 1, 0, h, m, s)))
	must(t, en.Apply(mk(EventCancel, SideBid, 0, 10, 1, 0, h, m, s)))

	if en.deferred.len() != 0 {
		t.Fatalf("a known maker's zero-price cancel should never be deferred")
	}
	if lvl := en.book.Get(100); lvl != nil {
		t.Fatalf("level should be fully cancelled, got %+v", lvl)
	}
}

func TestZeroPriceCancelUnknownMakerDefersThenMerges(t *testing.T) {
	en := newTestEngine()
	h, m, s := continuous()

	must(t, en.Apply(mk(EventCancel, SideBid, 0, 10, 1, 0, h, m, s)))
	entry, ok := en.deferred.get(1)
	if !ok || entry.Reason != ReasonZeroPriceCancel {
		t.Fatalf("expected a zero-price-cancel deferral, got %+v ok=%v", entry, ok)
	}

	must(t, en.Apply(mk(EventMaker, SideBid, 100, 10, 1, 0, h, m, s)))

	if en.deferred.len() != 0 {
		t.Fatalf("deferred should be empty after the maker resolves it")
	}
	if lvl := en.book.Get(100); lvl != nil {
		t.Fatalf("maker and its cancel net to zero, no level should exist, got %+v", lvl)
	}
}

func TestZeroPriceCancelRefusedByVenue(t *testing.T) {
	venue := Venue{AllowZeroPriceCancel: false}
	en := NewEngine(AssetDate{Asset: "600000", Date: "2026-08-06"}, venue)
	h, m, s := continuous()

	err := en.Apply(mk(EventCancel, SideBid, 0, 10, 1, 0, h, m, s))
	if !errors.Is(err, ErrZeroPriceCancelRefused) {
		t.Fatalf("err = %v, want ErrZeroPriceCancelRefused", err)
	}
}

func TestSpecialMakerThenTakerFullyConsumed(t *testing.T) {
	en := newTestEngine()
	h, m, s := continuous()

	must(t, en.Apply(mk(EventMaker, SideBid, 0, 8, 9, 0, h, m, s)))
	entry, ok := en.deferred.get(9)
	if !ok || entry.Reason != ReasonSpecialMaker {
		t.Fatalf("expected a special-maker deferral, got %+v ok=%v", entry, ok)
	}

	must(t, en.Apply(mk(EventTaker, SideAsk, 0, 8, 9, 0, h, m, s)))

	if en.deferred.len() != 0 {
		t.Fatalf("deferred should be drained, len = %d", en.deferred.len())
	}
	if _, _, ok := en.lookup.find(9); ok {
		t.Fatalf("the special maker should never have materialized into the book")
	}
}

func TestUnsupportedEventTypeIsRejectedNotPanicked(t *testing.T) {
	en := newTestEngine()
	h, m, s := continuous()

	err := en.Apply(mk(EventChange, SideBid, 100, 1, 1, 0, h, m, s))
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("err = %v, want ErrUnsupportedEventType", err)
	}
}

func TestZeroVolumeOrZeroIDIsSilentlyIgnored(t *testing.T) {
	en := newTestEngine()
	sink := &recordingSink{}
	en.SetFeatureSink(sink)
	h, m, s := continuous()

	if err := en.Apply(mk(EventMaker, SideBid, 100, 0, 1, 0, h, m, s)); err != nil {
		t.Fatalf("zero volume: %v", err)
	}
	if err := en.Apply(mk(EventMaker, SideBid, 100, 10, 0, 0, h, m, s)); err != nil {
		t.Fatalf("zero id: %v", err)
	}
	if sink.calls != 0 {
		t.Fatalf("feature sink should not fire on ignored events, calls = %d", sink.calls)
	}
}

func TestFeatureSinkFiresOnlyOnAcceptedEvents(t *testing.T) {
	en := newTestEngine()
	sink := &recordingSink{}
	en.SetFeatureSink(sink)
	h, m, s := continuous()

	must(t, en.Apply(mk(EventMaker, SideBid, 100, 10, 1, 0, h, m, s)))
	if sink.calls != 1 {
		t.Fatalf("calls = %d, want 1", sink.calls)
	}

	// A deferral still counts as accepted: it was neither ignored nor rejected.
	must(t, en.Apply(mk(EventTaker, SideBid, 2000, 3, 0, 5, h, m, s)))
	if sink.calls != 2 {
		t.Fatalf("calls = %d, want 2", sink.calls)
	}

	// Rejected events must not fire the sink.
	_ = en.Apply(mk(EventChange, SideBid, 100, 1, 1, 0, h, m, s))
	if sink.calls != 2 {
		t.Fatalf("calls = %d, want still 2 after a rejected event", sink.calls)
	}
}

func TestAnomalyReportedOnceThenSuppressed(t *testing.T) {
	en := newTestEngine()
	obs := &recordingObserver{}
	en.SetObserver(obs)
	h, m, s := continuous()

	// Establish a best ask at 200.
	must(t, en.Apply(mk(EventMaker, SideAsk, 200, 10, 0, 1, h, m, s)))

	// A level at 210 (>= bestAsk+5) whose net is bid-signed disagrees with
	// its side: deep in ask territory but net positive.
	must(t, en.Apply(mk(EventMaker, SideBid, 210, 5, 2, 0, h, m, s)))
	if len(obs.fired) != 1 || obs.fired[0] != 210 {
		t.Fatalf("fired = %v, want exactly [210]", obs.fired)
	}

	// Touching that same level again must not re-report it.
	must(t, en.Apply(mk(EventMaker, SideBid, 210, 1, 2, 0, h, m, s)))
	if len(obs.fired) != 1 {
		t.Fatalf("fired = %v, want still length 1", obs.fired)
	}
}

func TestResetClearsEverythingButNotCaller(t *testing.T) {
	en := newTestEngine()
	h, m, s := continuous()

	must(t, en.Apply(mk(EventMaker, SideBid, 100, 10, 1, 0, h, m, s)))
	must(t, en.Apply(mk(EventTaker, SideBid, 2000, 3, 0, 5, h, m, s)))

	en.Reset()

	if en.TOB().BestBid != 0 || en.TOB().BestAsk != 0 {
		t.Fatalf("TOB not cleared: %+v", en.TOB())
	}
	if en.deferred.len() != 0 {
		t.Fatalf("deferred queue not cleared")
	}
	if _, _, ok := en.lookup.find(1); ok {
		t.Fatalf("lookup not cleared")
	}
	if lvl := en.book.Get(100); lvl != nil {
		t.Fatalf("book not cleared, level = %+v", lvl)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
