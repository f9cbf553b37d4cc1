package pipeline

import (
	"lobrecon/domain/lob"
	"lobrecon/feature"
	"lobrecon/resample"
)

// tickToIndex maps a packed (h,m,s,ms) tick onto a level's fixed time
// dimension, clamped to [0, T-1] so a tick just past the session close
// (call auction cleanup) still lands on a valid row.
func tickToIndex(tick uint32, level feature.Level) int {
	hour := int(tick >> 24)
	minute := int((tick >> 16) & 0xff)
	second := int((tick >> 8) & 0xff)
	const sessionStartSeconds = 9*3600 + 15*60
	sinceStart := hour*3600 + minute*60 + second - sessionStartSeconds
	if sinceStart < 0 {
		sinceStart = 0
	}
	idx := sinceStart / level.BucketSeconds()
	if t := level.T(); idx >= t {
		idx = t - 1
	}
	return idx
}

// BarFeatureSink is the domain/lob.FeatureSink the sequential worker
// installs on its engine: it turns every accepted event into the book
// facts L0Schema declares, feeds taker events to one run-bar sampler, and
// turns each emitted bar into one L1 row keyed by the bar's own close tick.
// This is the concrete formula set this package ships with —
// domain/lob.FeatureSink stays the seam a richer, out-of-repo feature set
// would plug into instead. L2 is not written here: the only thing this
// sink computes that could live at hourly resolution is already available
// by reading L1 at a coarser stride, so nothing needs a second, redundant
// run-bar state machine.
type BarFeatureSink struct {
	date     string
	asset    int // this instrument's column in every tensor
	worker   int
	l0       *feature.Store
	l1       *feature.Store
	l0Schema *feature.Schema

	bar *resample.RunBar
}

func NewBarFeatureSink(date string, assetIndex, worker int, l0, l1 *feature.Store, barCfg resample.Config) *BarFeatureSink {
	return &BarFeatureSink{
		date:     date,
		asset:    assetIndex,
		worker:   worker,
		l0:       l0,
		l1:       l1,
		l0Schema: l0.Schema(),
		bar:      resample.NewRunBar(barCfg),
	}
}

func (s *BarFeatureSink) OnEvent(_ lob.AssetDate, tick uint32, e lob.Event, snap lob.BookSnapshot) {
	t := tickToIndex(tick, feature.L0)
	s.writeBookFacts(t, snap)
	s.l0.AdvanceProgress(s.worker, t)

	if e.Type != lob.EventTaker {
		return
	}
	isBid := e.Side == lob.SideBid
	volume := uint32(e.Volume)
	if bar, ok := s.bar.Resample(tick, isBid, volume); ok {
		s.writeBar(bar)
	}
}

func (s *BarFeatureSink) writeBookFacts(t int, snap lob.BookSnapshot) {
	var bidDepth, askDepth float32
	for _, lvl := range snap.BidLevels {
		bidDepth += float32(lvl.Net)
	}
	for _, lvl := range snap.AskLevels {
		askDepth += float32(-lvl.Net)
	}

	var mid, spread float32
	if snap.BestBid != 0 && snap.BestAsk != 0 {
		mid = (float32(snap.BestBid) + float32(snap.BestAsk)) / 2
		spread = float32(snap.BestAsk) - float32(snap.BestBid)
	}

	var imbalanceRaw float32
	if total := bidDepth + askDepth; total != 0 {
		imbalanceRaw = (bidDepth - askDepth) / total
	}

	linkL1 := float32(tickToIndex(packTick(t), feature.L1))
	linkL2 := float32(tickToIndex(packTick(t), feature.L2))

	values := make([]float32, 0, s.l0Schema.Range(feature.KindTimeSeries).Count)
	for _, f := range s.l0Schema.Fields() {
		if f.Kind != feature.KindTimeSeries {
			continue
		}
		switch f.Code {
		case FieldMidPrice:
			values = append(values, mid)
		case FieldSpread:
			values = append(values, spread)
		case FieldBidDepth:
			values = append(values, bidDepth)
		case FieldAskDepth:
			values = append(values, askDepth)
		case FieldImbalanceRaw:
			values = append(values, imbalanceRaw)
		case LinkL1:
			values = append(values, linkL1)
		case LinkL2:
			values = append(values, linkL2)
		default:
			values = append(values, 0)
		}
	}
	_ = s.l0.WriteTimeSeries(s.date, t, s.asset, values)
}

// packTick reconstructs a synthetic tick whose L0 index round-trips back
// to t, purely so linkL1/linkL2 can be derived with the same tickToIndex
// helper used everywhere else instead of a second, divergent formula.
func packTick(l0Index int) uint32 {
	const sessionStartSeconds = 9*3600 + 15*60
	totalSeconds := sessionStartSeconds + l0Index
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	sec := totalSeconds % 60
	return uint32(h)<<24 | uint32(m)<<16 | uint32(sec)<<8
}

func (s *BarFeatureSink) writeBar(bar resample.Bar) {
	t := tickToIndex(bar.Tick, feature.L1)
	signed := float32(bar.Volume)
	if !bar.IsBid {
		signed = -signed
	}
	_ = s.l1.WriteTimeSeries(s.date, t, s.asset, []float32{signed})
	s.l1.AdvanceProgress(s.worker, t)
}
