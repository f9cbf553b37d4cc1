package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"lobrecon/broadcast"
	"lobrecon/catalog"
	"lobrecon/codec"
)

// EncodingWorker drains an AssetQueue, encoding every pending date of each
// asset it pops into compressed event logs, matching encoding_worker.cpp's
// shape: pop an asset id, process every one of its pending dates, move on.
// Archive extraction and CSV parsing happen upstream of RowSource; this
// worker's own job starts once rows are already typed Go values.
type EncodingWorker struct {
	id      int
	queue   *AssetQueue
	rows    RowSource
	catalog *catalog.Store
	dates   func(asset string) []string
	outDir  string

	locks       *ArchiveLocks
	archiveBase string
	archiveExt  string

	notifier *broadcast.EncodeNotifier // nil disables publishing
	runID    string                    // Orchestrator's run UUID, stamped on every log line this worker emits
}

// NewEncodingWorker builds a worker that serializes its RowSource calls
// per archive (one archive per date, per catalog.GenerateArchivePath),
// since two assets sharing one date's archive must not extract it
// concurrently — the same constraint RarLockManager enforced on the
// original's per-archive mutex. notifier may be nil, disabling the
// per-encode Kafka notification.
func NewEncodingWorker(id int, queue *AssetQueue, rows RowSource, cat *catalog.Store, dates func(asset string) []string, outDir string, locks *ArchiveLocks, archiveBase, archiveExt string, notifier *broadcast.EncodeNotifier, runID string) *EncodingWorker {
	return &EncodingWorker{id: id, queue: queue, rows: rows, catalog: cat, dates: dates, outDir: outDir, locks: locks, archiveBase: archiveBase, archiveExt: archiveExt, notifier: notifier, runID: runID}
}

// Run drains the queue until it is empty, encoding every pending date for
// each asset it claims. It never returns an error for one bad date: a
// failure is recorded in the catalog and the worker moves to the next date,
// matching the original's per-date try/continue loop.
func (w *EncodingWorker) Run() error {
	log.Printf("[run %s] encoding worker %d: starting", w.runID, w.id)
	for {
		asset, ok := w.queue.Pop()
		if !ok {
			return nil
		}
		for _, date := range w.dates(asset) {
			if err := w.encodeOne(asset, date); err != nil {
				log.Printf("[run %s] encoding worker %d: %s/%s failed: %v", w.runID, w.id, asset, date, err)
				_ = w.catalog.MarkFailed(asset, date, err.Error())
			}
		}
	}
}

func (w *EncodingWorker) encodeOne(asset, date string) error {
	archivePath := catalog.GenerateArchivePath(w.archiveBase, date, w.archiveExt)

	var snapshotRows, orderRows [][]int64
	err := w.locks.WithLock(archivePath, func() error {
		var err error
		snapshotRows, orderRows, err = w.rows.Rows(asset, date)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "rows for %s/%s", asset, date)
	}
	if len(orderRows) == 0 {
		return errors.Wrapf(ErrNoRows, "%s/%s", asset, date)
	}

	snapshotsFile := filepath.Join(w.outDir, fmt.Sprintf("%s_snapshots_%s.bin", asset, date))
	ordersFile := filepath.Join(w.outDir, fmt.Sprintf("%s_orders_%s.bin", asset, date))

	if len(snapshotRows) > 0 {
		sw, err := codec.CreateWriter(snapshotsFile, codec.KindSnapshot, codec.SnapshotSchema())
		if err != nil {
			return errors.Wrapf(err, "create snapshot log %s/%s", asset, date)
		}
		for _, row := range snapshotRows {
			sw.WriteRow(row)
		}
		if err := sw.Close(); err != nil {
			return errors.Wrapf(err, "encode snapshots %s/%s", asset, date)
		}
	} else {
		snapshotsFile = ""
	}

	ow, err := codec.CreateWriter(ordersFile, codec.KindOrder, codec.OrderSchema())
	if err != nil {
		return errors.Wrapf(err, "create order log %s/%s", asset, date)
	}
	for _, row := range orderRows {
		ow.WriteRow(row)
	}
	if err := ow.Close(); err != nil {
		return errors.Wrapf(err, "encode orders %s/%s", asset, date)
	}

	if err := w.catalog.MarkEncoded(asset, date, uint64(len(orderRows)), snapshotsFile, ordersFile); err != nil {
		return err
	}

	if w.notifier != nil {
		_ = w.notifier.Notify(context.Background(), broadcast.EncodeEvent{
			Asset: asset, Date: date, OrderCount: uint64(len(orderRows)),
		})
	}
	return nil
}
