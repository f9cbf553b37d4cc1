package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"lobrecon/feature"
)

// IOWorker polls one level's Pool for the oldest cs_done slot and flushes
// it to disk, mirroring io_worker.cpp's drain loop: the cross-sectional
// phase finishes a date, the I/O worker notices and writes it out, freeing
// the slot for a later date to reuse. One IOWorker runs per level Pool; the
// pipeline orchestrator starts two, one for L0 and one for L1.
type IOWorker struct {
	level      feature.Level
	pool       *feature.Pool
	dir        string
	pollPeriod time.Duration
}

func NewIOWorker(level feature.Level, pool *feature.Pool, dir string) *IOWorker {
	return &IOWorker{level: level, pool: pool, dir: dir, pollPeriod: time.Millisecond}
}

// Run polls until ctx is done, flushing every cs_done slot it finds as soon
// as it appears.
func (w *IOWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				slot, ok := w.pool.OldestCSDone()
				if !ok {
					break
				}
				if err := w.flush(slot); err != nil {
					return errors.Wrapf(err, "flush %s", slot.Date)
				}
			}
		}
	}
}

func (w *IOWorker) flush(slot *feature.Slot) error {
	return w.pool.Flush(slot, func(s *feature.Slot) error {
		dir := dateDir(w.dir, s.Date)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("features_%s.bin", w.level))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return feature.SaveTensor(f, s.Tensor)
	})
}

func dateDir(base, date string) string {
	return filepath.Join(base, date)
}
