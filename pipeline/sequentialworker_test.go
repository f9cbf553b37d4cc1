package pipeline

import (
	"context"
	"testing"

	"lobrecon/catalog"
	"lobrecon/codec"
	"lobrecon/domain/lob"
	"lobrecon/feature"
	"lobrecon/resample"
)

func barCfg() resample.Config {
	return resample.Config{
		TargetBarPeriod:     60,
		TradeHoursPerDay:    4,
		EMADaysPeriod:       5,
		MinGapSeconds:       1,
		InitVolumeThreshold: 1000,
	}
}

// TestSequentialWorkerRunAdvancesProgressPastLastBucket guards against the
// pipeline deadlock where an asset's last event of the day almost never
// lands in L0's literal final second or closes an L1 bar in the literal
// final minute: without a forced finalize, CrossSectionalWorker.Run's
// WaitForTime(ctx, T-1) would block forever once Run returns, since nothing
// downstream ever cancels that ctx before the block.
func TestSequentialWorkerRunAdvancesProgressPastLastBucket(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Open(dir)
	if err != nil {
		t.Fatalf("catalog open: %v", err)
	}
	defer cat.Close()

	const asset, date = "600000", "20260806"
	ordersFile := dir + "/orders.bin"
	w, err := codec.CreateWriter(ordersFile, codec.KindOrder, codec.OrderSchema())
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := cat.MarkEncoded(asset, date, 0, "", ordersFile); err != nil {
		t.Fatalf("mark encoded: %v", err)
	}

	l0Schema, l1Schema := L0Schema(), BarSchema()
	l0Pool := feature.NewPool(1, feature.L0.T(), l0Schema.F(), 1)
	l1Pool := feature.NewPool(1, feature.L1.T(), l1Schema.F(), 1)
	l0 := feature.NewStore(l0Schema, feature.L0, l0Pool, 1)
	l1 := feature.NewStore(l1Schema, feature.L1, l1Pool, 1)
	if _, err := l0Pool.Acquire(date); err != nil {
		t.Fatalf("acquire l0 slot: %v", err)
	}
	if _, err := l1Pool.Acquire(date); err != nil {
		t.Fatalf("acquire l1 slot: %v", err)
	}

	worker := NewSequentialWorker(
		0, []string{asset}, lob.DefaultVenue(), cat,
		func(string) []string { return []string{date} },
		func(string) int { return 0 },
		l0, l1, barCfg(), "test-run",
	)
	if err := worker.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already-canceled: WaitForTime must not need it if progress reached T
	if err := l0.WaitForTime(ctx, feature.L0.T()-1); err != nil {
		t.Fatalf("l0 progress stuck below T: %v", err)
	}
	if err := l1.WaitForTime(ctx, feature.L1.T()-1); err != nil {
		t.Fatalf("l1 progress stuck below T: %v", err)
	}
}

// TestSequentialWorkerRunAdvancesProgressWithNoAssets covers the case where
// a worker has nothing assigned for the date at all (fewer assets than
// workers): its progress fence starts at the zero value and must still
// reach T, since CrossSectionalWorker.Run takes the minimum across every
// worker's fence, idle or not.
func TestSequentialWorkerRunAdvancesProgressWithNoAssets(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Open(dir)
	if err != nil {
		t.Fatalf("catalog open: %v", err)
	}
	defer cat.Close()

	l0Schema, l1Schema := L0Schema(), BarSchema()
	l0 := feature.NewStore(l0Schema, feature.L0, feature.NewPool(1, feature.L0.T(), l0Schema.F(), 1), 1)
	l1 := feature.NewStore(l1Schema, feature.L1, feature.NewPool(1, feature.L1.T(), l1Schema.F(), 1), 1)

	worker := NewSequentialWorker(
		0, nil, lob.DefaultVenue(), cat,
		func(string) []string { return nil },
		func(string) int { return 0 },
		l0, l1, barCfg(), "test-run",
	)
	if err := worker.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l0.WaitForTime(ctx, feature.L0.T()-1); err != nil {
		t.Fatalf("idle worker left l0 progress stuck: %v", err)
	}
	if err := l1.WaitForTime(ctx, feature.L1.T()-1); err != nil {
		t.Fatalf("idle worker left l1 progress stuck: %v", err)
	}
}
