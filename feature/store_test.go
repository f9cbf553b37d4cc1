package feature

import (
	"context"
	"testing"
	"time"
)

func testSchema() *Schema {
	return NewSchema([]FieldDecl{
		{Code: "mid_price", Kind: KindTimeSeries},
		{Code: "imbalance", Kind: KindTimeSeries},
		{Code: "rank_momentum", Kind: KindCrossSectional},
		{Code: "link_l1", Kind: KindMeta},
	})
}

func TestStoreWriteReadTimeSeries(t *testing.T) {
	schema := testSchema()
	pool := NewPool(1, L0.T(), schema.F(), 3)
	st := NewStore(schema, L0, pool, 1)

	if _, err := pool.Acquire("2026-08-06"); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := st.WriteTimeSeries("2026-08-06", 0, 1, []float32{1.5, -2.0}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := st.ReadCell("2026-08-06", 0, 0, 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 1.5 {
		t.Fatalf("mid_price = %v, want 1.5", got)
	}
}

func TestStoreUnloadedDateErrors(t *testing.T) {
	schema := testSchema()
	pool := NewPool(1, L0.T(), schema.F(), 3)
	st := NewStore(schema, L0, pool, 1)

	if err := st.WriteTimeSeries("never-acquired", 0, 0, []float32{1, 2}); err != ErrDateNotLoaded {
		t.Fatalf("err = %v, want ErrDateNotLoaded", err)
	}
}

func TestStoreCrossSectionalRangeCheck(t *testing.T) {
	schema := testSchema()
	pool := NewPool(1, L0.T(), schema.F(), 3)
	st := NewStore(schema, L0, pool, 1)
	pool.Acquire("2026-08-06")

	tsOffset, _ := schema.Offset("mid_price")
	if err := st.WriteCrossSectional("2026-08-06", 0, tsOffset, []float32{1, 2, 3}); err != ErrFieldRange {
		t.Fatalf("err = %v, want ErrFieldRange", err)
	}
}

func TestProgressFenceWaitForTime(t *testing.T) {
	schema := testSchema()
	pool := NewPool(1, L0.T(), schema.F(), 3)
	st := NewStore(schema, L0, pool, 2)

	st.AdvanceProgress(0, 5)
	st.AdvanceProgress(1, 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := st.WaitForTime(ctx, 4); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestProgressFenceTimesOut(t *testing.T) {
	schema := testSchema()
	pool := NewPool(1, L0.T(), schema.F(), 3)
	st := NewStore(schema, L0, pool, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := st.WaitForTime(ctx, 0); err == nil {
		t.Fatal("expected a timeout since worker 0 never advanced")
	}
}

func TestWriteLinkOnlyAllowedOnL0(t *testing.T) {
	schema := testSchema()
	poolL1 := NewPool(1, L1.T(), schema.F(), 3)
	st := NewStore(schema, L1, poolL1, 1)
	poolL1.Acquire("2026-08-06")

	if err := st.WriteLink("2026-08-06", 0, 0, "link_l1", 3); err != ErrFieldRange {
		t.Fatalf("err = %v, want ErrFieldRange", err)
	}
}
