package evaluation

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeToFive(t *testing.T) {
	cases := []struct {
		score float64
		max   float64
		want  float64
	}{
		{score: 0, max: 10, want: 0},
		{score: 10, max: 10, want: 5},
		{score: 20, max: 40, want: 2.5},
		{score: 3, max: 0, want: 3},
		{score: 12, max: 10, want: 5},
		{score: -4, max: 10, want: 0},
	}
	for _, tc := range cases {
		got := NormalizeToFive(floatPtr(tc.score), tc.max)
		if got == nil || !approx(*got, tc.want) {
			t.Fatalf("NormalizeToFive(%v, %v): expected %v, got %v", tc.score, tc.max, tc.want, got)
		}
	}
}

func TestNormalizeToFiveKeepsUngraded(t *testing.T) {
	if got := NormalizeToFive(nil, 10); got != nil {
		t.Fatalf("expected nil for missing score, got %v", *got)
	}
	if got := NormalizeToFive(floatPtr(math.NaN()), 10); got != nil {
		t.Fatalf("expected nil for NaN score, got %v", *got)
	}
}

func TestNormalizeToFiveIsMonotonic(t *testing.T) {
	for _, max := range []float64{5, 10, 15, 40, 80} {
		prev := -1.0
		for s := 0.0; s <= max; s += 0.5 {
			got := *NormalizeToFive(floatPtr(s), max)
			if got < prev {
				t.Fatalf("max %v: score %v normalized to %v, below previous %v", max, s, got, prev)
			}
			prev = got
		}
		if !approx(prev, 5) {
			t.Fatalf("max %v: expected full score to map to 5, got %v", max, prev)
		}
	}
}

func TestConvertBetweenScalesRoundTrip(t *testing.T) {
	for _, s := range []float64{0, 1, 7.5, 13, 20} {
		there := ConvertBetweenScales(floatPtr(s), 20, 40)
		back := ConvertBetweenScales(there, 40, 20)
		if back == nil || !approx(*back, s) {
			t.Fatalf("expected %v after round trip, got %v", s, back)
		}
	}
	if got := ConvertBetweenScales(floatPtr(4), 5, 0); got == nil || !approx(*got, 4) {
		t.Fatalf("expected missing target max to mean 5, got %v", got)
	}
	if got := ConvertBetweenScales(nil, 5, 10); got != nil {
		t.Fatalf("expected nil to stay nil, got %v", *got)
	}
}
