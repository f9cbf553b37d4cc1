package pipeline

import (
	"log"

	"github.com/cockroachdb/errors"

	"lobrecon/affinity"
	"lobrecon/catalog"
	"lobrecon/codec"
	"lobrecon/domain/lob"
	"lobrecon/feature"
	"lobrecon/resample"
)

// SequentialWorker replays every encoded date assigned to it through one
// reused lob.Engine per asset, in date order, mirroring
// sequential_worker.cpp's process_binary_files + lob.clear() loop: one
// engine per instrument, reset between dates rather than rebuilt.
type SequentialWorker struct {
	id       int
	assets   []string // assets this worker owns, from AssignWorkers
	venue    lob.Venue
	catalog  *catalog.Store
	dates    func(asset string) []string
	assetIdx func(asset string) int

	l0, l1   *feature.Store
	barCfg   resample.Config
	observer lob.Observer // nil leaves the engine's own lob.NopObserver in place

	cpuCore int    // -1 disables pinning
	runID   string // Orchestrator's run UUID, stamped on every log line this worker emits
}

func NewSequentialWorker(
	id int, assets []string, venue lob.Venue, cat *catalog.Store,
	dates func(asset string) []string, assetIdx func(asset string) int,
	l0, l1 *feature.Store, barCfg resample.Config, runID string,
) *SequentialWorker {
	return &SequentialWorker{
		id: id, assets: assets, venue: venue, catalog: cat,
		dates: dates, assetIdx: assetIdx,
		l0: l0, l1: l1, barCfg: barCfg,
		cpuCore: -1, runID: runID,
	}
}

// PinTo requests that Run lock itself to the given CPU core before doing
// any work. Called by the orchestrator when config.Config.CPUAffinity
// names a core for this worker's id.
func (w *SequentialWorker) PinTo(core int) { w.cpuCore = core }

// SetObserver installs the lob.Observer every engine this worker creates
// reports anomalies to, e.g. telemetry.Metrics.
func (w *SequentialWorker) SetObserver(o lob.Observer) { w.observer = o }

// Run replays every assigned asset's encoded dates in order, one lob.Engine
// per asset reused (and Reset) across dates. A decode or apply failure on
// one date is recorded in the catalog and does not abort the other dates.
func (w *SequentialWorker) Run() error {
	if w.cpuCore >= 0 {
		if err := affinity.Pin(w.cpuCore); err != nil {
			log.Printf("[run %s] sequential worker %d: pin to core %d failed: %v", w.runID, w.id, w.cpuCore, err)
		}
	}
	log.Printf("[run %s] sequential worker %d: starting on %d assets", w.runID, w.id, len(w.assets))

	for _, asset := range w.assets {
		a := w.assetIdx(asset)
		engine := lob.NewEngine(lob.AssetDate{Asset: asset}, w.venue)
		if w.observer != nil {
			engine.SetObserver(w.observer)
		}
		for _, date := range w.dates(asset) {
			if err := w.replayOne(engine, asset, a, date); err != nil {
				log.Printf("[run %s] sequential worker %d: %s/%s failed: %v", w.runID, w.id, asset, date, err)
				_ = w.catalog.MarkFailed(asset, date, err.Error())
			}
			engine.Reset()
		}
	}

	// Every asset's last processed event rarely lands in the literal final
	// L0 second or closes an L1 bar in the literal final minute, so the
	// progress fence this worker owns would otherwise sit frozen below T
	// forever — forcing CrossSectionalWorker.Run's WaitForTime to block on
	// a ctx that nothing ever cancels (orchestrator.go's cancel is behind
	// the very drain this would deadlock). Force both fences to T once this
	// worker has no more events to contribute, assigned assets or not.
	w.l0.AdvanceProgress(w.id, feature.L0.T()-1)
	w.l1.AdvanceProgress(w.id, feature.L1.T()-1)
	return nil
}

func (w *SequentialWorker) replayOne(engine *lob.Engine, asset string, a int, date string) error {
	rec, err := w.catalog.Get(asset, date)
	if err != nil {
		return errors.Wrapf(err, "catalog lookup %s/%s", asset, date)
	}
	if !rec.HasBinaries() {
		return errors.Newf("%s/%s has no encoded orders file", asset, date)
	}

	reader, err := codec.OpenReader(rec.OrdersFile, codec.OrderSchema())
	if err != nil {
		return errors.Wrapf(err, "open order log %s/%s", asset, date)
	}
	defer reader.Close()

	rows, err := reader.Rows()
	if err != nil {
		return errors.Wrapf(err, "decode order log %s/%s", asset, date)
	}

	engine.AD = lob.AssetDate{Asset: asset, Date: date}
	sink := NewBarFeatureSink(date, a, w.id, w.l0, w.l1, w.barCfg)
	engine.SetFeatureSink(sink)

	for _, row := range rows {
		err := engine.Apply(DecodeEventRow(row))
		switch {
		case err == nil:
		case errors.Is(err, lob.ErrZeroPriceCancelRefused):
			// Expected per §4.1's derivation table: a venue-refused
			// zero-price cancel, not a corrupt stream. A Change row
			// (ErrUnsupportedEventType) falls through to the default case
			// and fails the date.
			continue
		default:
			return errors.Wrapf(err, "apply event %s/%s", asset, date)
		}
	}

	return w.catalog.MarkAnalyzed(asset, date)
}
