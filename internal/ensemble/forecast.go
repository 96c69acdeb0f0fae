package ensemble

import (
	"math"

	"github.com/rainzhq/rainz/internal/models"
)

// MaxHours caps the forecast horizon at 3 days of hourly entries.
const MaxHours = 72

// BuildForecast orchestrates member discovery and per-variable statistics
// for one raw provider response. Temperature bands are rounded to whole
// degrees, precipitation to two decimals, and every array including the
// time axis is truncated to MaxHours.
func BuildForecast(rawHourly []byte, times []string) (models.EnsembleForecast, error) {
	members, err := DiscoverMembers(rawHourly)
	if err != nil {
		return models.EnsembleForecast{}, err
	}

	tempStats := CalculateStats(members.Temperature)
	precipStats := CalculateStats(members.Precipitation)

	temperature := bands(tempStats, roundWhole)
	precipitation := bands(precipStats, roundHundredths)
	if len(precipitation.Median) == 0 {
		// No precipitation arrays in the response at all. Emit dry hours
		// so every hourly band has the same length.
		precipitation = zeroBands(len(temperature.Median))
	}

	forecast := models.EnsembleForecast{
		Hourly: models.EnsembleHourly{
			Time:          truncate(times),
			Temperature:   temperature,
			Precipitation: precipitation,
		},
		Confidence: ClassifyConfidence(tempStats),
		Synthetic:  members.Synthetic,
	}

	return forecast, nil
}

// AvgTemperatureSpread reports the mean p90-p10 temperature gap of a built
// forecast, for history recording.
func AvgTemperatureSpread(f models.EnsembleForecast) float64 {
	t := f.Hourly.Temperature
	if len(t.P90) == 0 || len(t.P90) != len(t.P10) {
		return 0
	}
	var sum float64
	for i := range t.P90 {
		sum += t.P90[i] - t.P10[i]
	}
	return sum / float64(len(t.P90))
}

func bands(stats []HourStat, round func(float64) float64) models.EnsembleBands {
	n := len(stats)
	if n > MaxHours {
		n = MaxHours
	}
	b := models.EnsembleBands{
		Median: make([]float64, n),
		P10:    make([]float64, n),
		P90:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		b.Median[i] = round(stats[i].Median)
		b.P10[i] = round(stats[i].P10)
		b.P90[i] = round(stats[i].P90)
	}
	return b
}

func zeroBands(n int) models.EnsembleBands {
	return models.EnsembleBands{
		Median: make([]float64, n),
		P10:    make([]float64, n),
		P90:    make([]float64, n),
	}
}

func truncate(times []string) []string {
	if len(times) > MaxHours {
		return times[:MaxHours]
	}
	return times
}

func roundWhole(v float64) float64 {
	return math.Round(v)
}

func roundHundredths(v float64) float64 {
	return math.Round(v*100) / 100
}
