package pipeline

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestRankOrdersAscending(t *testing.T) {
	got := rank([]float32{30, 10, 20})
	// lowest value gets the lowest rank, highest value the highest
	if !(got[1] < got[2] && got[2] < got[0]) {
		t.Fatalf("rank(30,10,20) = %v, want ascending order for indices 1,2,0", got)
	}
	for _, v := range got {
		if v <= 0 || v >= 1 {
			t.Fatalf("rank value %v out of (0,1)", v)
		}
	}
}

func TestRankTiesAreAveraged(t *testing.T) {
	got := rank([]float32{5, 5, 1})
	if got[0] != got[1] {
		t.Fatalf("tied values got different ranks: %v", got)
	}
	if got[2] >= got[0] {
		t.Fatalf("rank(5,5,1) = %v, want index 2 strictly lowest", got)
	}
}

func TestZScoreMeanZeroVarianceOne(t *testing.T) {
	got := zscore([]float32{1, 2, 3, 4, 5})
	var sum, sumSq float64
	for _, v := range got {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	mean := sum / float64(len(got))
	variance := sumSq/float64(len(got)) - mean*mean
	if !approxEqual(mean, 0, 1e-5) {
		t.Fatalf("mean = %v, want ~0", mean)
	}
	if !approxEqual(variance, 1, 1e-4) {
		t.Fatalf("variance = %v, want ~1", variance)
	}
}

func TestZScoreZeroVarianceIsAllZeros(t *testing.T) {
	got := zscore([]float32{7, 7, 7, 7})
	for i, v := range got {
		if v != 0 {
			t.Fatalf("zscore[%d] = %v, want 0 for a constant column", i, v)
		}
	}
}

func TestInverseNormalCDFPreservesOrder(t *testing.T) {
	got := inverseNormalCDF([]float32{3, 1, 2})
	if !(got[1] < got[2] && got[2] < got[0]) {
		t.Fatalf("inverseNormalCDF(3,1,2) = %v, want ascending order for indices 1,2,0", got)
	}
}

func TestProbitMedianIsZero(t *testing.T) {
	got := probit(0.5)
	if !approxEqual(got, 0, 1e-9) {
		t.Fatalf("probit(0.5) = %v, want 0", got)
	}
}

func TestProbitKnownQuantiles(t *testing.T) {
	cases := []struct {
		p, want float64
	}{
		{0.975, 1.959963985},
		{0.025, -1.959963985},
		{0.8413447, 1.0},
	}
	for _, c := range cases {
		got := probit(c.p)
		if !approxEqual(got, c.want, 1e-5) {
			t.Fatalf("probit(%v) = %v, want ~%v", c.p, got, c.want)
		}
	}
}

func TestClampUnitKeepsInteriorValuesUnchanged(t *testing.T) {
	if clampUnit(0.5) != 0.5 {
		t.Fatalf("clampUnit(0.5) = %v, want 0.5", clampUnit(0.5))
	}
}

func TestClampUnitPushesEndpointsAwayFromPoles(t *testing.T) {
	if clampUnit(0) == 0 {
		t.Fatal("clampUnit(0) should move away from the pole")
	}
	if clampUnit(1) == 1 {
		t.Fatal("clampUnit(1) should move away from the pole")
	}
}
