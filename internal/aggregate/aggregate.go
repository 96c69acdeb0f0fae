// Package aggregate combines independently fetched weather sources into a
// ranked and blended view. All functions are pure; upstream fetch failures
// are handled by the caller simply omitting that provider from the input.
package aggregate

import (
	"errors"
	"math"

	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/units"
)

// ErrEmptySourceSet is returned when an operation needs at least one source.
// Callers with zero successful fetches must surface their own fallback
// rather than calling into this package.
var ErrEmptySourceSet = errors.New("aggregate: empty source set")

// AggregatedSourceName labels the synthesized source.
const AggregatedSourceName = "Aggregated"

// Each 1°F of maximum deviation from the mean costs this many percentage
// points of agreement. A linear display penalty, not a confidence interval.
const agreementPenaltyPerDegree = 10.0

// PickMostAccurate returns the source with the highest declared accuracy.
// Ties go to the earliest source, so the result is stable in provider
// registration order.
func PickMostAccurate(sources []models.WeatherSource) (models.WeatherSource, error) {
	if len(sources) == 0 {
		return models.WeatherSource{}, ErrEmptySourceSet
	}

	best := sources[0]
	for _, s := range sources[1:] {
		if s.Accuracy > best.Accuracy {
			best = s
		}
	}
	return best, nil
}

// BuildAggregated synthesizes a source whose current temperature is the
// unweighted mean across all sources, rounded to the nearest degree. Every
// other field passes through from the most accurate source; only
// temperature is blended.
func BuildAggregated(sources []models.WeatherSource) (models.WeatherSource, error) {
	best, err := PickMostAccurate(sources)
	if err != nil {
		return models.WeatherSource{}, err
	}

	agg := best
	agg.Source = AggregatedSourceName
	agg.CurrentWeather.Temperature = meanTemperature(sources).Round()
	return agg, nil
}

// ComputeModelAgreement returns a 0-100 display percentage derived from how
// far the worst outlier sits from the mean current temperature. A single
// source always agrees with itself (100).
func ComputeModelAgreement(sources []models.WeatherSource) (float64, error) {
	if len(sources) == 0 {
		return 0, ErrEmptySourceSet
	}

	avg := float64(meanTemperature(sources))
	var maxDeviation float64
	for _, s := range sources {
		d := math.Abs(float64(s.CurrentWeather.Temperature) - avg)
		if d > maxDeviation {
			maxDeviation = d
		}
	}

	return math.Max(0, 100-maxDeviation*agreementPenaltyPerDegree), nil
}

// Result runs the full aggregation pass over a non-empty source set.
func Result(sources []models.WeatherSource) (models.AggregatedResult, error) {
	best, err := PickMostAccurate(sources)
	if err != nil {
		return models.AggregatedResult{}, err
	}
	agg, err := BuildAggregated(sources)
	if err != nil {
		return models.AggregatedResult{}, err
	}
	agreement, err := ComputeModelAgreement(sources)
	if err != nil {
		return models.AggregatedResult{}, err
	}

	return models.AggregatedResult{
		Sources:        sources,
		MostAccurate:   best,
		Aggregated:     agg,
		ModelAgreement: agreement,
	}, nil
}

func meanTemperature(sources []models.WeatherSource) units.Fahrenheit {
	var sum float64
	for _, s := range sources {
		sum += float64(s.CurrentWeather.Temperature)
	}
	return units.Fahrenheit(sum / float64(len(sources)))
}
