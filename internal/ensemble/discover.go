// Package ensemble turns raw multi-member forecast time series into
// percentile bands and a single confidence label. Providers disagree on how
// per-member arrays are keyed, so discovery probes an ordered list of naming
// conventions and degrades through two fallback tiers before giving up.
package ensemble

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/rainzhq/rainz/internal/metrics"
)

// ErrNoForecastData is returned when the provider response holds neither
// per-member arrays nor a base forecast. There is nothing to degrade to.
var ErrNoForecastData = errors.New("ensemble: no forecast data in provider response")

const (
	// MaxMembers bounds the member probe. Large operational ensembles run
	// 51 simulations (control plus 50 perturbed).
	MaxMembers = 51

	temperatureKey   = "temperature_2m"
	precipitationKey = "precipitation"

	syntheticTempOffset  = 2.0 // °F either side of the base run
	syntheticPrecipDrier = 0.7
	syntheticPrecipWetter = 1.3
)

// memberKeyTemplates are the naming conventions tried, in order, for each
// member index. First match wins for that member.
var memberKeyTemplates = []string{
	"%s_member%02d", // zero-padded: temperature_2m_member01
	"%s_member_%d",  // underscore-separated: temperature_2m_member_1
	"%s_member%d",   // bare index: temperature_2m_member1
}

// Members holds the discovered per-member hourly series for each variable.
type Members struct {
	Temperature   [][]float64
	Precipitation [][]float64

	// Synthetic marks fabricated spread. The confidence formula treats
	// synthetic and genuine members identically, so downstream consumers
	// need this flag to tell manufactured uncertainty from real model
	// disagreement.
	Synthetic bool
}

// DiscoverMembers locates per-member hourly arrays in a provider's flat
// hourly response object.
//
// Tier 0: probe member-keyed arrays for indices 0..MaxMembers-1.
// Tier 1: a variable with no member arrays falls back to its base array as
// the sole member.
// Tier 2: no member arrays at all but a base temperature array exists:
// fabricate a 3-member synthetic ensemble (base, cooler -2°F / drier x0.7,
// warmer +2°F / wetter x1.3).
//
// Only total absence of temperature data is an error.
func DiscoverMembers(rawHourly []byte) (Members, error) {
	temps := probeMembers(rawHourly, temperatureKey)
	precips := probeMembers(rawHourly, precipitationKey)

	tempBase := arrayAt(rawHourly, temperatureKey)
	precipBase := arrayAt(rawHourly, precipitationKey)

	if len(temps) == 0 && len(precips) == 0 {
		if tempBase == nil {
			return Members{}, ErrNoForecastData
		}
		metrics.EnsembleFallbacksTotal.WithLabelValues("synthetic").Inc()
		return syntheticMembers(tempBase, precipBase), nil
	}

	// One variable may expose members while the other only has a base run.
	if len(temps) == 0 {
		if tempBase == nil {
			return Members{}, ErrNoForecastData
		}
		temps = [][]float64{tempBase}
	}
	if len(precips) == 0 && precipBase != nil {
		precips = [][]float64{precipBase}
	}

	if len(temps) == 1 {
		metrics.EnsembleFallbacksTotal.WithLabelValues("single").Inc()
	} else {
		metrics.EnsembleFallbacksTotal.WithLabelValues("members").Inc()
	}

	return Members{Temperature: temps, Precipitation: precips}, nil
}

// probeMembers tries each key template per member index, stopping at the
// first template that matches for that index. A miss on every template ends
// the scan; indices are assumed contiguous.
func probeMembers(raw []byte, variable string) [][]float64 {
	var members [][]float64
	for i := 0; i < MaxMembers; i++ {
		var found []float64
		for _, tmpl := range memberKeyTemplates {
			if arr := arrayAt(raw, fmt.Sprintf(tmpl, variable, i)); arr != nil {
				found = arr
				break
			}
		}
		if found == nil {
			// Member numbering often starts at 1; tolerate a missing
			// index 0 but stop on any later gap.
			if i == 0 {
				continue
			}
			break
		}
		members = append(members, found)
	}
	return members
}

// arrayAt returns the numeric array at key, or nil when absent or not an
// array of numbers.
func arrayAt(raw []byte, key string) []float64 {
	v := gjson.GetBytes(raw, key)
	if !v.IsArray() {
		return nil
	}
	arr := v.Array()
	out := make([]float64, 0, len(arr))
	for _, e := range arr {
		if e.Type != gjson.Number {
			return nil
		}
		out = append(out, e.Float())
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// syntheticMembers fabricates a 3-member ensemble from the base run. The
// spread is manufactured, not observed, so the result is flagged.
func syntheticMembers(tempBase, precipBase []float64) Members {
	cooler := make([]float64, len(tempBase))
	warmer := make([]float64, len(tempBase))
	for i, t := range tempBase {
		cooler[i] = t - syntheticTempOffset
		warmer[i] = t + syntheticTempOffset
	}

	m := Members{
		Temperature: [][]float64{tempBase, cooler, warmer},
		Synthetic:   true,
	}

	if precipBase != nil {
		drier := make([]float64, len(precipBase))
		wetter := make([]float64, len(precipBase))
		for i, p := range precipBase {
			drier[i] = p * syntheticPrecipDrier
			wetter[i] = p * syntheticPrecipWetter
		}
		m.Precipitation = [][]float64{precipBase, drier, wetter}
	}

	return m
}
