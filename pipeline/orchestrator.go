package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"lobrecon/broadcast"
	"lobrecon/catalog"
	"lobrecon/config"
	"lobrecon/controlplane"
	"lobrecon/feature"
	"lobrecon/telemetry"
)

// Orchestrator wires the encoding, sequential, cross-sectional and I/O
// phases together for one run, following shared_state.hpp's overall shape
// (one global date set, one catalog of per-asset/date progress) while using
// context.Context cancellation in place of the original's SIGINT flag —
// the teacher's own idiom for background work (cmd/server/main.go's
// ctx, cancel := context.WithCancel pattern).
type Orchestrator struct {
	cfg         *config.Config
	cat         *catalog.Store
	instruments *catalog.InstrumentSet
	rows        RowSource

	l0Pool, l1Pool *feature.Pool
	l0, l1         *feature.Store

	runID string // stamps every worker log line and, once attached, telemetry.Metrics.RunInfo

	notifier   *broadcast.EncodeNotifier // nil disables encode notifications
	dayBcaster *broadcast.DayBroadcaster // nil disables day-ready notifications
	metrics    *telemetry.Metrics        // nil disables prometheus reporting
	ctrl       *controlplane.Server      // nil disables health-status toggling
}

// RunID returns the UUID generated for this Orchestrator at construction,
// the same identifier stamped on every worker log line and, once
// WithMetrics is called, telemetry.Metrics.RunInfo.
func (o *Orchestrator) RunID() string { return o.runID }

// WithMetrics attaches a telemetry.Metrics instance; every RunDate call
// after this reports phase durations and forwards engine anomalies to it.
func (o *Orchestrator) WithMetrics(m *telemetry.Metrics) *Orchestrator {
	o.metrics = m
	o.metrics.SetRunID(o.runID)
	return o
}

// WithControlPlane attaches a controlplane.Server; every RunDate call
// after this flips that phase's gRPC health entry to SERVING while it
// runs and back to NOT_SERVING once it's done.
func (o *Orchestrator) WithControlPlane(s *controlplane.Server) *Orchestrator {
	o.ctrl = s
	return o
}

func (o *Orchestrator) phaseStarted(service string) {
	if o.ctrl != nil {
		o.ctrl.PhaseStarted(service)
	}
}

func (o *Orchestrator) phaseStopped(service string) {
	if o.ctrl != nil {
		o.ctrl.PhaseStopped(service)
	}
}

func NewOrchestrator(cfg *config.Config, cat *catalog.Store, instruments *catalog.InstrumentSet, rows RowSource) *Orchestrator {
	numAssets := cfg.NumInstruments
	l0Schema, l1Schema := L0Schema(), BarSchema()

	l0Pool := feature.NewPool(cfg.PoolSlots, feature.L0.T(), l0Schema.F(), numAssets)
	l1Pool := feature.NewPool(cfg.PoolSlots, feature.L1.T(), l1Schema.F(), numAssets)

	o := &Orchestrator{
		cfg: cfg, cat: cat, instruments: instruments, rows: rows,
		l0Pool: l0Pool, l1Pool: l1Pool,
		l0: feature.NewStore(l0Schema, feature.L0, l0Pool, cfg.SequentialWorkers),
		l1: feature.NewStore(l1Schema, feature.L1, l1Pool, cfg.SequentialWorkers),
		runID: uuid.New().String(),
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.EncodeTopic != "" {
		o.notifier = broadcast.NewEncodeNotifier(cfg.KafkaBrokers, cfg.EncodeTopic)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.DayReadyTopic != "" {
		if b, err := broadcast.NewDayBroadcaster(cat, instruments, cfg.KafkaBrokers, cfg.DayReadyTopic); err == nil {
			o.dayBcaster = b
		}
	}
	return o
}

// RunDate processes one trading day end to end: acquire tensor slots,
// encode, replay every instrument's orders through the LOB engine,
// cross-sectionally normalize, then flush to disk. The encoding and
// sequential phases fan out across cfg.EncoderWorkers/SequentialWorkers;
// cross-sectional and I/O run once the fan-out for the date has settled,
// a deliberate per-date barrier (documented in DESIGN.md) rather than the
// original's fully decoupled worker pool, since this package's pipelining
// unit is a date's tensor slot, not a continuous stream across dates.
func (o *Orchestrator) RunDate(ctx context.Context, date string) error {
	instruments := o.instruments.All()
	assets := make([]string, len(instruments))
	for i, inst := range instruments {
		assets[i] = inst.Code
		_ = o.cat.PutPending(inst.Code, date)
	}

	o.phaseStarted(controlplane.ServiceEncode)
	encodeDone := o.startPhase("encode")
	encodeErr := o.encode(date, assets)
	encodeDone()
	o.phaseStopped(controlplane.ServiceEncode)
	if encodeErr != nil {
		return errors.Wrapf(encodeErr, "encode phase %s", date)
	}

	if _, err := o.l0Pool.Acquire(date); err != nil {
		return errors.Wrapf(err, "acquire L0 slot %s", date)
	}
	if _, err := o.l1Pool.Acquire(date); err != nil {
		return errors.Wrapf(err, "acquire L1 slot %s", date)
	}

	o.phaseStarted(controlplane.ServiceSequential)
	seqDone := o.startPhase("sequential")
	seqErr := o.sequential(date, assets)
	seqDone()
	o.phaseStopped(controlplane.ServiceSequential)
	if seqErr != nil {
		return errors.Wrapf(seqErr, "sequential phase %s", date)
	}

	o.phaseStarted(controlplane.ServiceCrossSectional)
	csDone := o.startPhase("cross_sectional")
	csCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	csErrs := make(chan error, 2)
	go func() { csErrs <- NewCrossSectionalWorker(o.l0, o.cfg.NumInstruments).Run(csCtx, date) }()
	go func() { csErrs <- NewCrossSectionalWorker(o.l1, o.cfg.NumInstruments).Run(csCtx, date) }()
	for i := 0; i < 2; i++ {
		if err := <-csErrs; err != nil {
			csDone()
			o.phaseStopped(controlplane.ServiceCrossSectional)
			return errors.Wrapf(err, "cross-sectional phase %s", date)
		}
	}
	csDone()
	o.phaseStopped(controlplane.ServiceCrossSectional)

	o.phaseStarted(controlplane.ServiceIO)
	ioDone := o.startPhase("io")
	ioCtx, ioCancel := context.WithCancel(ctx)
	io0 := NewIOWorker(feature.L0, o.l0Pool, o.cfg.DatabaseBase)
	io1 := NewIOWorker(feature.L1, o.l1Pool, o.cfg.DatabaseBase)
	ioResults := make(chan error, 2)
	go func() { ioResults <- io0.Run(ioCtx) }()
	go func() { ioResults <- io1.Run(ioCtx) }()

	// Both pools' only cs_done slot is this date's; once OldestCSDone stops
	// finding anything for either pool the flush is done and the I/O
	// workers can be told to stop polling.
	waitDrained(o.l0Pool)
	waitDrained(o.l1Pool)
	ioCancel()
	for i := 0; i < 2; i++ {
		if err := <-ioResults; err != nil && !errors.Is(err, context.Canceled) {
			ioDone()
			o.phaseStopped(controlplane.ServiceIO)
			return errors.Wrapf(err, "io phase %s", date)
		}
	}
	ioDone()
	o.phaseStopped(controlplane.ServiceIO)

	for _, asset := range assets {
		_ = o.cat.MarkAnalyzed(asset, date)
	}
	if o.dayBcaster != nil {
		o.dayBcaster.CheckDate(date)
	}
	return nil
}

// startPhase returns a no-op closer when no telemetry.Metrics is attached,
// or a closer that records the elapsed time under phase's label otherwise.
func (o *Orchestrator) startPhase(phase string) func() {
	if o.metrics == nil {
		return func() {}
	}
	return o.metrics.PhaseTimer(phase)
}

func waitDrained(p *feature.Pool) {
	for {
		if _, ok := p.OldestCSDone(); !ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func (o *Orchestrator) encode(date string, assets []string) error {
	queue := NewAssetQueue(assets)
	locks := NewArchiveLocks()
	dates := func(string) []string { return []string{date} }

	var wg sync.WaitGroup
	errs := make(chan error, o.cfg.EncoderWorkers)
	for i := 0; i < o.cfg.EncoderWorkers; i++ {
		w := NewEncodingWorker(i, queue, o.rows, o.cat, dates, o.cfg.DatabaseBase, locks, o.cfg.ArchiveBase, o.cfg.ArchiveExtension, o.notifier, o.runID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- w.Run()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) sequential(date string, assets []string) error {
	workloads := make([]AssetWorkload, 0, len(assets))
	for _, asset := range assets {
		rec, err := o.cat.Get(asset, date)
		if err != nil {
			continue
		}
		workloads = append(workloads, AssetWorkload{AssetCode: asset, OrderCount: rec.OrderCount})
	}
	assignment := AssignWorkers(workloads, o.cfg.SequentialWorkers)

	byWorker := make(map[int][]string, o.cfg.SequentialWorkers)
	for _, w := range workloads {
		id := assignment[w.AssetCode]
		byWorker[id] = append(byWorker[id], w.AssetCode)
	}

	assetIdx := make(map[string]int, len(assets))
	for i, inst := range o.instruments.All() {
		assetIdx[inst.Code] = i
	}

	var wg sync.WaitGroup
	errs := make(chan error, o.cfg.SequentialWorkers)
	for id := 0; id < o.cfg.SequentialWorkers; id++ {
		owned := byWorker[id]
		worker := NewSequentialWorker(
			id, owned, o.cfg.Venue, o.cat,
			func(string) []string { return []string{date} },
			func(asset string) int { return assetIdx[asset] },
			o.l0, o.l1, o.cfg.Resample, o.runID,
		)
		if id < len(o.cfg.CPUAffinity) {
			worker.PinTo(o.cfg.CPUAffinity[id])
		}
		if o.metrics != nil {
			worker.SetObserver(o.metrics)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- worker.Run()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
