// Package units carries the fixed measurement units used throughout the
// forecast core. Everything downstream of the provider clients is imperial:
// temperature in Fahrenheit, wind in mph, pressure in mb, precipitation in
// inches. Metric display conversion happens in consuming UIs, never here.
package units

import "math"

// Fahrenheit is a temperature in degrees Fahrenheit.
type Fahrenheit float64

// Celsius converts for display layers. The core never calls this.
func (f Fahrenheit) Celsius() float64 {
	return (float64(f) - 32) * 5 / 9
}

// Round returns the temperature rounded to the nearest whole degree.
func (f Fahrenheit) Round() Fahrenheit {
	return Fahrenheit(math.Round(float64(f)))
}

// FromCelsius converts a provider value reported in Celsius.
func FromCelsius(c float64) Fahrenheit {
	return Fahrenheit(c*9/5 + 32)
}

// MilesPerHour is a wind speed in mph.
type MilesPerHour float64

// Millibar is an atmospheric pressure in mb (hPa).
type Millibar float64

// Inches is a precipitation amount in inches.
type Inches float64
