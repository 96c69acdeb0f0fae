package ensemble

import (
	"testing"

	"github.com/rainzhq/rainz/internal/models"
)

func TestCalculateStats_PercentileOrdering(t *testing.T) {
	t.Parallel()

	members := [][]float64{
		{70, 68, 72}, {71, 69, 75}, {69, 70, 71},
		{73, 66, 74}, {68, 71, 70},
	}

	stats := CalculateStats(members)
	if len(stats) != 3 {
		t.Fatalf("stats length = %d, want 3", len(stats))
	}
	for h, s := range stats {
		if s.P10 > s.Median || s.Median > s.P90 {
			t.Errorf("hour %d: ordering violated: p10=%v median=%v p90=%v", h, s.P10, s.Median, s.P90)
		}
		if s.Spread != s.P90-s.P10 {
			t.Errorf("hour %d: spread = %v, want %v", h, s.Spread, s.P90-s.P10)
		}
	}
}

func TestCalculateStats_NearestRank(t *testing.T) {
	t.Parallel()

	// 10 members at one hour: sorted column is 0..9.
	var members [][]float64
	for i := 9; i >= 0; i-- {
		members = append(members, []float64{float64(i)})
	}

	stats := CalculateStats(members)
	if len(stats) != 1 {
		t.Fatalf("stats length = %d, want 1", len(stats))
	}
	s := stats[0]
	if s.Median != 5 { // sorted[10/2]
		t.Errorf("median = %v, want 5", s.Median)
	}
	if s.P10 != 1 { // sorted[10/10]
		t.Errorf("p10 = %v, want 1", s.P10)
	}
	if s.P90 != 9 { // sorted[floor(10*0.9)]
		t.Errorf("p90 = %v, want 9", s.P90)
	}
}

func TestCalculateStats_SingleMember(t *testing.T) {
	t.Parallel()

	stats := CalculateStats([][]float64{{71, 72, 73}})
	for h, s := range stats {
		if s.Median != s.P10 || s.P10 != s.P90 {
			t.Errorf("hour %d: single member should collapse bands, got %+v", h, s)
		}
		if s.Spread != 0 {
			t.Errorf("hour %d: spread = %v, want 0", h, s.Spread)
		}
	}
}

func TestCalculateStats_TruncatesToShortestMember(t *testing.T) {
	t.Parallel()

	members := [][]float64{
		{70, 71, 72, 73},
		{68, 69},
		{74, 75, 76},
	}

	stats := CalculateStats(members)
	if len(stats) != 2 {
		t.Errorf("stats length = %d, want 2 (shortest member)", len(stats))
	}
}

func TestCalculateStats_Empty(t *testing.T) {
	t.Parallel()

	if got := CalculateStats(nil); got != nil {
		t.Errorf("CalculateStats(nil) = %v, want nil", got)
	}
	if got := CalculateStats([][]float64{{}}); got != nil {
		t.Errorf("CalculateStats of empty member = %v, want nil", got)
	}
}

func TestClassifyConfidence_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spread float64
		want   models.Confidence
	}{
		{0, models.ConfidenceHigh},
		{4.99, models.ConfidenceHigh},
		{5.0, models.ConfidenceMedium},
		{9.99, models.ConfidenceMedium},
		{10.0, models.ConfidenceLow},
		{25, models.ConfidenceLow},
	}

	for _, tt := range tests {
		stats := []HourStat{{Spread: tt.spread}}
		if got := ClassifyConfidence(stats); got != tt.want {
			t.Errorf("spread %v: confidence = %q, want %q", tt.spread, got, tt.want)
		}
	}
}

func TestClassifyConfidence_Averages(t *testing.T) {
	t.Parallel()

	// Spreads 2 and 12 average to 7: medium despite one low-confidence hour.
	stats := []HourStat{{Spread: 2}, {Spread: 12}}
	if got := ClassifyConfidence(stats); got != models.ConfidenceMedium {
		t.Errorf("confidence = %q, want medium", got)
	}
}
