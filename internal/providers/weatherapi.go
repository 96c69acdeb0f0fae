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
	weatherAPIName     = "WeatherAPI"
	weatherAPIAccuracy = 0.92
	weatherAPIBaseURL  = "https://api.weatherapi.com/v1/forecast.json"

	maxHourlyEntries = 24
	maxDailyEntries  = 10
)

// WeatherAPI is the WeatherAPI.com integration. Highest declared accuracy
// of the registered providers, so it usually wins the most-accurate pick.
type WeatherAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewWeatherAPI(apiKey string) *WeatherAPI {
	return &WeatherAPI{
		apiKey:  apiKey,
		baseURL: weatherAPIBaseURL,
		client:  httputil.NewClient(),
	}
}

func (w *WeatherAPI) Name() string      { return weatherAPIName }
func (w *WeatherAPI) Accuracy() float64 { return weatherAPIAccuracy }

type weatherAPIResponse struct {
	Location struct {
		Name      string  `json:"name"`
		Region    string  `json:"region"`
		Country   string  `json:"country"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		Localtime string  `json:"localtime"`
	} `json:"location"`
	Current struct {
		TempF      float64 `json:"temp_f"`
		FeelsLikeF float64 `json:"feelslike_f"`
		Humidity   int     `json:"humidity"`
		WindMph    float64 `json:"wind_mph"`
		WindDir    string  `json:"wind_dir"`
		VisMiles   float64 `json:"vis_miles"`
		UV         float64 `json:"uv"`
		PressureMb float64 `json:"pressure_mb"`
		Condition  struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
		AirQuality struct {
			USEPAIndex int `json:"us-epa-index"`
		} `json:"air_quality"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempF     float64 `json:"maxtemp_f"`
				MinTempF     float64 `json:"mintemp_f"`
				ChanceOfRain int     `json:"daily_chance_of_rain"`
				Condition    struct {
					Text string `json:"text"`
					Icon string `json:"icon"`
				} `json:"condition"`
			} `json:"day"`
			Astro struct {
				Sunrise string `json:"sunrise"`
				Sunset  string `json:"sunset"`
			} `json:"astro"`
			Hour []struct {
				Time         string  `json:"time"`
				TempF        float64 `json:"temp_f"`
				ChanceOfRain int     `json:"chance_of_rain"`
				Condition    struct {
					Text string `json:"text"`
					Icon string `json:"icon"`
				} `json:"condition"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (w *WeatherAPI) Fetch(ctx context.Context, lat, lon float64, locationName string) (*models.WeatherSource, error) {
	if w.apiKey == "" {
		return nil, fmt.Errorf("weatherapi: api key not configured")
	}

	values := url.Values{}
	values.Set("key", w.apiKey)
	values.Set("q", fmt.Sprintf("%.4f,%.4f", lat, lon))
	values.Set("days", "10")
	values.Set("aqi", "yes")

	body, err := fetchJSON(ctx, w.client, weatherAPIName, w.baseURL+"?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("weatherapi: %w", err)
	}

	var data weatherAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("weatherapi: unmarshal: %w", err)
	}

	if locationName == "" {
		locationName = data.Location.Name
	}

	src := &models.WeatherSource{
		Source:    weatherAPIName,
		Location:  locationName,
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  weatherAPIAccuracy,
		StationInfo: &models.StationInfo{
			Name:      data.Location.Name,
			Region:    data.Location.Region,
			Country:   data.Location.Country,
			Localtime: data.Location.Localtime,
		},
		CurrentWeather: models.CurrentWeather{
			Temperature:   units.Fahrenheit(data.Current.TempF),
			Condition:     data.Current.Condition.Text,
			Humidity:      data.Current.Humidity,
			WindSpeed:     units.MilesPerHour(data.Current.WindMph),
			WindDirection: data.Current.WindDir,
			Visibility:    data.Current.VisMiles,
			FeelsLike:     units.Fahrenheit(data.Current.FeelsLikeF),
			UVIndex:       data.Current.UV,
			Pressure:      units.Millibar(data.Current.PressureMb),
			AQI:           data.Current.AirQuality.USEPAIndex,
			AQICategory:   epaCategory(data.Current.AirQuality.USEPAIndex),
		},
		FetchedAt: time.Now().UTC(),
	}

	if len(data.Forecast.ForecastDay) > 0 {
		first := data.Forecast.ForecastDay[0]
		src.CurrentWeather.Sunrise = first.Astro.Sunrise
		src.CurrentWeather.Sunset = first.Astro.Sunset

		for _, h := range first.Hour {
			if len(src.HourlyForecast) >= maxHourlyEntries {
				break
			}
			src.HourlyForecast = append(src.HourlyForecast, models.HourlyEntry{
				Time:          h.Time,
				Temperature:   units.Fahrenheit(h.TempF),
				Condition:     h.Condition.Text,
				Precipitation: h.ChanceOfRain,
				Icon:          h.Condition.Icon,
			})
		}
	}

	for _, d := range data.Forecast.ForecastDay {
		if len(src.DailyForecast) >= maxDailyEntries {
			break
		}
		src.DailyForecast = append(src.DailyForecast, models.DailyEntry{
			Day:           d.Date,
			Condition:     d.Day.Condition.Text,
			Description:   d.Day.Condition.Text,
			HighTemp:      units.Fahrenheit(d.Day.MaxTempF),
			LowTemp:       units.Fahrenheit(d.Day.MinTempF),
			Precipitation: d.Day.ChanceOfRain,
			Icon:          d.Day.Condition.Icon,
		})
	}

	return src, nil
}

func epaCategory(index int) string {
	switch index {
	case 1:
		return "Good"
	case 2:
		return "Moderate"
	case 3:
		return "Unhealthy for Sensitive Groups"
	case 4:
		return "Unhealthy"
	case 5:
		return "Very Unhealthy"
	case 6:
		return "Hazardous"
	default:
		return ""
	}
}
