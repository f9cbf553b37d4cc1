package catalog

import (
	"bytes"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// Store is the durable, crash-resumable record of which (asset, date) pairs
// have been encoded and analyzed, repurposed from infra/wal/exit's
// pebble-backed outbox (order exit state) to asset/date pipeline state.
type Store struct {
	db *pebble.DB
}

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "catalog: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func keyFor(asset, date string) []byte {
	return []byte(fmt.Sprintf("d/%s/%s", asset, date))
}

func prefixForAsset(asset string) []byte {
	return []byte(fmt.Sprintf("d/%s/", asset))
}

// PutPending registers a (asset, date) pair that has not been encoded yet.
// It is a no-op if the pair already has a record (so re-running discovery
// never clobbers progress).
func (s *Store) PutPending(asset, date string) error {
	if _, err := s.Get(asset, date); err == nil {
		return nil
	}
	return s.put(asset, date, Record{Status: StatusPending})
}

func (s *Store) MarkEncoded(asset, date string, orderCount uint64, snapshotsFile, ordersFile string) error {
	return s.put(asset, date, Record{
		Status:        StatusEncoded,
		OrderCount:    orderCount,
		SnapshotsFile: snapshotsFile,
		OrdersFile:    ordersFile,
		LastAttempt:   time.Now().UnixNano(),
	})
}

func (s *Store) MarkAnalyzed(asset, date string) error {
	rec, err := s.Get(asset, date)
	if err != nil {
		return err
	}
	rec.Status = StatusAnalyzed
	rec.LastAttempt = time.Now().UnixNano()
	return s.put(asset, date, rec)
}

func (s *Store) MarkFailed(asset, date, reason string) error {
	rec, _ := s.Get(asset, date)
	rec.Status = StatusFailed
	rec.FailureReason = reason
	rec.LastAttempt = time.Now().UnixNano()
	return s.put(asset, date, rec)
}

func (s *Store) put(asset, date string, rec Record) error {
	return s.db.Set(keyFor(asset, date), encodeRecord(rec), pebble.Sync)
}

func (s *Store) Get(asset, date string) (Record, error) {
	val, closer, err := s.db.Get(keyFor(asset, date))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRecord(val)
}

// ScanAsset iterates every date recorded for one asset, in date order
// (pebble keys sort lexically and dates are fixed-width YYYYMMDD).
func (s *Store) ScanAsset(asset string, fn func(date string, rec Record) error) error {
	prefix := prefixForAsset(asset)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append(append([]byte{}, prefix...), 0xff),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		date := bytes.TrimPrefix(iter.Key(), prefix)
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(string(date), rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Summary aggregates one asset's records, generalized from
// AssetInfo::get_total_order_count / get_encoded_count / get_missing_dates /
// get_analyzed_count.
type Summary struct {
	TotalTradingDays int
	EncodedCount     int
	AnalyzedCount    int
	TotalOrders      uint64
	MissingDates     []string
}

func (s *Store) Summarize(asset string) (Summary, error) {
	var sum Summary
	err := s.ScanAsset(asset, func(date string, rec Record) error {
		sum.TotalTradingDays++
		sum.TotalOrders += rec.OrderCount
		switch rec.Status {
		case StatusEncoded, StatusAnalyzed:
			sum.EncodedCount++
		default:
			sum.MissingDates = append(sum.MissingDates, date)
		}
		if rec.Status == StatusAnalyzed {
			sum.AnalyzedCount++
		}
		return nil
	})
	return sum, err
}
