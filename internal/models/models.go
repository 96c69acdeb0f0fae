package models

import (
	"time"

	"github.com/rainzhq/rainz/internal/units"
)

// WeatherSource is one provider's complete forecast for a location.
// Constructed per request from a provider fetch, immutable once returned,
// never persisted as-is.
type WeatherSource struct {
	Source    string  `json:"source"`
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Accuracy is the provider's hand-assigned weight in [0,1], fixed per
	// integration. It is not learned from verification history.
	Accuracy float64 `json:"accuracy"`

	StationInfo    *StationInfo   `json:"stationInfo,omitempty"`
	CurrentWeather CurrentWeather `json:"currentWeather"`
	HourlyForecast []HourlyEntry  `json:"hourlyForecast"`
	DailyForecast  []DailyEntry   `json:"dailyForecast"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// StationInfo describes the nearest physical station reported by a provider.
type StationInfo struct {
	Name      string `json:"name"`
	Region    string `json:"region,omitempty"`
	Country   string `json:"country,omitempty"`
	Localtime string `json:"localtime,omitempty"`
}

type CurrentWeather struct {
	Temperature   units.Fahrenheit   `json:"temperature"`
	Condition     string             `json:"condition"`
	Humidity      int                `json:"humidity"`
	WindSpeed     units.MilesPerHour `json:"windSpeed"`
	WindDirection string             `json:"windDirection"`
	Visibility    float64            `json:"visibility"`
	FeelsLike     units.Fahrenheit   `json:"feelsLike"`
	UVIndex       float64            `json:"uvIndex"`
	Pressure      units.Millibar     `json:"pressure"`

	Sunrise         string `json:"sunrise,omitempty"`
	Sunset          string `json:"sunset,omitempty"`
	DaylightMinutes int    `json:"daylightMinutes,omitempty"`
	AQI             int    `json:"aqi,omitempty"`
	AQICategory     string `json:"aqiCategory,omitempty"`
}

// HourlyEntry is one hour of forecast. Providers return at most 24.
type HourlyEntry struct {
	Time          string           `json:"time"`
	Temperature   units.Fahrenheit `json:"temperature"`
	Condition     string           `json:"condition"`
	Precipitation int              `json:"precipitation"` // chance, 0-100
	Icon          string           `json:"icon,omitempty"`
}

// DailyEntry is one day of forecast. Providers return at most 10.
type DailyEntry struct {
	Day           string           `json:"day"`
	Condition     string           `json:"condition"`
	Description   string           `json:"description"`
	HighTemp      units.Fahrenheit `json:"highTemp"`
	LowTemp       units.Fahrenheit `json:"lowTemp"`
	Precipitation int              `json:"precipitation"` // chance, 0-100
	Icon          string           `json:"icon,omitempty"`
}

// AggregatedResult is the output of one aggregation pass over the sources
// that responded for a location. Order of Sources matches provider
// registration order.
type AggregatedResult struct {
	Sources        []WeatherSource  `json:"sources"`
	MostAccurate   WeatherSource    `json:"mostAccurate"`
	Aggregated     WeatherSource    `json:"aggregated"`
	ModelAgreement float64          `json:"modelAgreement"`
	Refined        *RefinedForecast `json:"refined,omitempty"`
}

// RefinedForecast is the optional LLM-unified view of an aggregation.
// When the refiner is disabled or fails, this is absent and consumers use
// the aggregated source directly.
type RefinedForecast struct {
	Summary         string             `json:"summary"`
	Temperature     units.Fahrenheit   `json:"temperature"`
	Condition       string             `json:"condition"`
	FieldConfidence map[string]float64 `json:"fieldConfidence,omitempty"`
	Model           string             `json:"model"`
}

// Confidence classifies the overall spread of an ensemble forecast.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// EnsembleForecast carries percentile bands for the uncertainty
// visualization. All hourly arrays are positionally aligned with Time and
// hold at most 72 entries.
type EnsembleForecast struct {
	Hourly     EnsembleHourly `json:"hourly"`
	Confidence Confidence     `json:"confidence"`

	// Synthetic is true when the bands were fabricated from a single base
	// forecast rather than genuine per-member data. Consumers should
	// discount or visually distinguish fabricated spread.
	Synthetic bool `json:"synthetic"`
}

type EnsembleHourly struct {
	Time          []string      `json:"time"`
	Temperature   EnsembleBands `json:"temperature"`
	Precipitation EnsembleBands `json:"precipitation"`
}

type EnsembleBands struct {
	Median []float64 `json:"median"`
	P10    []float64 `json:"p10"`
	P90    []float64 `json:"p90"`
}

// Location is a place the snapshot scheduler tracks between requests.
type Location struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
	Active    bool
}

// AggregationRun records one scheduler pass for history charting.
type AggregationRun struct {
	ID          int64
	LocationID  int64
	FetchedAt   time.Time
	SourceCount int
	Agreement   float64
	Temperature units.Fahrenheit
	Refined     bool
	RawJSON     string
}

// EnsembleRun records one ensemble fetch for history charting.
type EnsembleRun struct {
	ID         int64
	LocationID int64
	FetchedAt  time.Time
	Confidence Confidence
	Synthetic  bool
	AvgSpread  float64
}
