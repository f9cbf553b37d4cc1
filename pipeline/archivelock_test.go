package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestArchiveLocksSerializesSamePath(t *testing.T) {
	locks := NewArchiveLocks()
	var inside int32
	var sawOverlap int32

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locks.WithLock("/archives/20260806.rar", func() error {
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.StoreInt32(&sawOverlap, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if sawOverlap != 0 {
		t.Fatal("two WithLock calls for the same path ran concurrently")
	}
}

func TestArchiveLocksAllowsDifferentPathsConcurrently(t *testing.T) {
	locks := NewArchiveLocks()
	start := make(chan struct{})
	var wg sync.WaitGroup
	results := make([]bool, 2)

	run := func(idx int, path string) {
		defer wg.Done()
		<-start
		_ = locks.WithLock(path, func() error {
			results[idx] = true
			time.Sleep(5 * time.Millisecond)
			return nil
		})
	}

	wg.Add(2)
	go run(0, "/archives/a.rar")
	go run(1, "/archives/b.rar")
	close(start)
	wg.Wait()

	if !results[0] || !results[1] {
		t.Fatal("both distinct-path locks should have run")
	}
}

func TestArchiveLocksPropagatesError(t *testing.T) {
	locks := NewArchiveLocks()
	wantErr := ErrNoRows
	err := locks.WithLock("/archives/x.rar", func() error { return wantErr })
	if err != wantErr {
		t.Fatalf("WithLock returned %v, want %v", err, wantErr)
	}
}
