package ensemble

import (
	"sort"

	"github.com/rainzhq/rainz/internal/models"
)

// HourStat holds the nearest-rank percentile summary for one forecast hour.
type HourStat struct {
	Median float64
	P10    float64
	P90    float64
	Spread float64
}

// Confidence thresholds over the average temperature spread, in °F.
// Strict less-than: a spread exactly on a boundary drops to the lower
// confidence bucket.
const (
	highConfidenceSpread   = 5.0
	mediumConfidenceSpread = 10.0
)

// CalculateStats computes per-hour nearest-rank percentiles across members.
// Members of unequal length are truncated to the shortest so every hour has
// the same member count. Returns nil for an empty member set.
func CalculateStats(members [][]float64) []HourStat {
	if len(members) == 0 {
		return nil
	}

	hours := len(members[0])
	for _, m := range members[1:] {
		if len(m) < hours {
			hours = len(m)
		}
	}
	if hours == 0 {
		return nil
	}

	n := len(members)
	stats := make([]HourStat, hours)
	column := make([]float64, n)

	for h := 0; h < hours; h++ {
		for i, m := range members {
			column[i] = m[h]
		}
		sort.Float64s(column)

		stat := HourStat{
			Median: column[n/2],
			P10:    column[n/10],
			P90:    column[n*9/10],
		}
		stat.Spread = stat.P90 - stat.P10
		stats[h] = stat
	}

	return stats
}

// ClassifyConfidence maps the average temperature spread to a single label
// for the whole forecast horizon.
func ClassifyConfidence(tempStats []HourStat) models.Confidence {
	avg := avgSpread(tempStats)
	switch {
	case avg < highConfidenceSpread:
		return models.ConfidenceHigh
	case avg < mediumConfidenceSpread:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func avgSpread(stats []HourStat) float64 {
	if len(stats) == 0 {
		return 0
	}
	var sum float64
	for _, s := range stats {
		sum += s.Spread
	}
	return sum / float64(len(stats))
}
