package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rainzhq/rainz/internal/httputil"
	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/units"
)

const (
	openMeteoName     = "Open-Meteo"
	openMeteoAccuracy = 0.85
	openMeteoBaseURL  = "https://api.open-meteo.com/v1/forecast"
)

// OpenMeteo is the Open-Meteo integration. Keyless, so it is always
// registered and acts as the floor of the provider set.
type OpenMeteo struct {
	baseURL string
	client  *http.Client
}

func NewOpenMeteo() *OpenMeteo {
	return &OpenMeteo{
		baseURL: openMeteoBaseURL,
		client:  httputil.NewClient(),
	}
}

func (o *OpenMeteo) Name() string      { return openMeteoName }
func (o *OpenMeteo) Accuracy() float64 { return openMeteoAccuracy }

type openMeteoResponse struct {
	Current struct {
		Temperature     float64 `json:"temperature_2m"`
		ApparentTemp    float64 `json:"apparent_temperature"`
		Humidity        int     `json:"relative_humidity_2m"`
		WindSpeed       float64 `json:"wind_speed_10m"`
		WindDirection   float64 `json:"wind_direction_10m"`
		SurfacePressure float64 `json:"surface_pressure"`
		WeatherCode     int     `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		PrecipProb    []int     `json:"precipitation_probability"`
		WeatherCode   []int     `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		PrecipProb  []int     `json:"precipitation_probability_max"`
		WeatherCode []int     `json:"weather_code"`
		Sunrise     []string  `json:"sunrise"`
		Sunset      []string  `json:"sunset"`
	} `json:"daily"`
}

func (o *OpenMeteo) Fetch(ctx context.Context, lat, lon float64, locationName string) (*models.WeatherSource, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lon))
	values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,wind_direction_10m,surface_pressure,weather_code")
	values.Set("hourly", "temperature_2m,precipitation_probability,weather_code")
	values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max,weather_code,sunrise,sunset")
	values.Set("temperature_unit", "fahrenheit")
	values.Set("wind_speed_unit", "mph")
	values.Set("precipitation_unit", "inch")
	values.Set("forecast_days", "10")
	values.Set("timezone", "auto")

	body, err := fetchJSON(ctx, o.client, openMeteoName, o.baseURL+"?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("openmeteo: %w", err)
	}

	var data openMeteoResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("openmeteo: unmarshal: %w", err)
	}

	src := &models.WeatherSource{
		Source:    openMeteoName,
		Location:  locationName,
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  openMeteoAccuracy,
		CurrentWeather: models.CurrentWeather{
			Temperature:   units.Fahrenheit(data.Current.Temperature),
			Condition:     weatherCodeText(data.Current.WeatherCode),
			Humidity:      data.Current.Humidity,
			WindSpeed:     units.MilesPerHour(data.Current.WindSpeed),
			WindDirection: compassDirection(data.Current.WindDirection),
			FeelsLike:     units.Fahrenheit(data.Current.ApparentTemp),
			Pressure:      units.Millibar(data.Current.SurfacePressure),
		},
		FetchedAt: time.Now().UTC(),
	}

	if len(data.Daily.Sunrise) > 0 {
		src.CurrentWeather.Sunrise = trimISOTime(data.Daily.Sunrise[0])
	}
	if len(data.Daily.Sunset) > 0 {
		src.CurrentWeather.Sunset = trimISOTime(data.Daily.Sunset[0])
	}

	for i, ts := range data.Hourly.Time {
		if len(src.HourlyForecast) >= maxHourlyEntries || i >= len(data.Hourly.Temperature) {
			break
		}
		entry := models.HourlyEntry{
			Time:        ts,
			Temperature: units.Fahrenheit(data.Hourly.Temperature[i]),
		}
		if i < len(data.Hourly.WeatherCode) {
			entry.Condition = weatherCodeText(data.Hourly.WeatherCode[i])
		}
		if i < len(data.Hourly.PrecipProb) {
			entry.Precipitation = data.Hourly.PrecipProb[i]
		}
		src.HourlyForecast = append(src.HourlyForecast, entry)
	}

	for i, day := range data.Daily.Time {
		if len(src.DailyForecast) >= maxDailyEntries || i >= len(data.Daily.TempMax) || i >= len(data.Daily.TempMin) {
			break
		}
		entry := models.DailyEntry{
			Day:      day,
			HighTemp: units.Fahrenheit(data.Daily.TempMax[i]),
			LowTemp:  units.Fahrenheit(data.Daily.TempMin[i]),
		}
		if i < len(data.Daily.WeatherCode) {
			entry.Condition = weatherCodeText(data.Daily.WeatherCode[i])
			entry.Description = entry.Condition
		}
		if i < len(data.Daily.PrecipProb) {
			entry.Precipitation = data.Daily.PrecipProb[i]
		}
		src.DailyForecast = append(src.DailyForecast, entry)
	}

	return src, nil
}

// trimISOTime strips the date portion of an ISO local timestamp.
func trimISOTime(iso string) string {
	if t, err := time.Parse("2006-01-02T15:04", iso); err == nil {
		return t.Format("3:04 PM")
	}
	return iso
}

// weatherCodeText maps WMO weather interpretation codes to display text.
func weatherCodeText(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
