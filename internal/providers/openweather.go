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
	openWeatherName     = "OpenWeather"
	openWeatherAccuracy = 0.88
	openWeatherBaseURL  = "https://api.openweathermap.org/data/2.5"
)

// OpenWeather is the OpenWeatherMap integration. Uses the current-weather
// and 5-day/3-hour forecast endpoints with imperial units.
type OpenWeather struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenWeather(apiKey string) *OpenWeather {
	return &OpenWeather{
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		client:  httputil.NewClient(),
	}
}

func (o *OpenWeather) Name() string      { return openWeatherName }
func (o *OpenWeather) Accuracy() float64 { return openWeatherAccuracy }

type openWeatherCurrent struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility int `json:"visibility"` // meters
	Weather    []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int `json:"timezone"` // shift from UTC in seconds
}

type openWeatherForecast struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp    float64 `json:"temp"`
			TempMax float64 `json:"temp_max"`
			TempMin float64 `json:"temp_min"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Pop float64 `json:"pop"` // probability 0-1
	} `json:"list"`
}

func (o *OpenWeather) Fetch(ctx context.Context, lat, lon float64, locationName string) (*models.WeatherSource, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("openweather: api key not configured")
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%.4f", lat))
	values.Set("lon", fmt.Sprintf("%.4f", lon))
	values.Set("units", "imperial")
	values.Set("appid", o.apiKey)

	currentBody, err := fetchJSON(ctx, o.client, openWeatherName, o.baseURL+"/weather?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("openweather: %w", err)
	}

	var current openWeatherCurrent
	if err := json.Unmarshal(currentBody, &current); err != nil {
		return nil, fmt.Errorf("openweather: unmarshal current: %w", err)
	}

	if locationName == "" {
		locationName = current.Name
	}

	condition := ""
	if len(current.Weather) > 0 {
		condition = current.Weather[0].Main
	}

	tzOffset := time.Duration(current.Timezone) * time.Second
	sunrise := time.Unix(current.Sys.Sunrise, 0).UTC().Add(tzOffset)
	sunset := time.Unix(current.Sys.Sunset, 0).UTC().Add(tzOffset)

	src := &models.WeatherSource{
		Source:    openWeatherName,
		Location:  locationName,
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  openWeatherAccuracy,
		StationInfo: &models.StationInfo{
			Name:    current.Name,
			Country: current.Sys.Country,
		},
		CurrentWeather: models.CurrentWeather{
			Temperature:     units.Fahrenheit(current.Main.Temp),
			Condition:       condition,
			Humidity:        current.Main.Humidity,
			WindSpeed:       units.MilesPerHour(current.Wind.Speed),
			WindDirection:   compassDirection(current.Wind.Deg),
			Visibility:      float64(current.Visibility) / 1609.34, // meters to miles
			FeelsLike:       units.Fahrenheit(current.Main.FeelsLike),
			Pressure:        units.Millibar(current.Main.Pressure),
			Sunrise:         sunrise.Format("3:04 PM"),
			Sunset:          sunset.Format("3:04 PM"),
			DaylightMinutes: int(sunset.Sub(sunrise).Minutes()),
		},
		FetchedAt: time.Now().UTC(),
	}

	forecastBody, err := fetchJSON(ctx, o.client, openWeatherName, o.baseURL+"/forecast?"+values.Encode())
	if err != nil {
		// Current conditions alone are still a usable source.
		return src, nil
	}

	var forecast openWeatherForecast
	if err := json.Unmarshal(forecastBody, &forecast); err != nil {
		return src, nil
	}

	type dayAgg struct {
		date        string
		high, low   float64
		pop         float64
		condition   string
		description string
		icon        string
	}
	var days []dayAgg

	for _, entry := range forecast.List {
		if len(src.HourlyForecast) < maxHourlyEntries {
			cond, entryIcon := "", ""
			if len(entry.Weather) > 0 {
				cond = entry.Weather[0].Main
				entryIcon = entry.Weather[0].Icon
			}
			src.HourlyForecast = append(src.HourlyForecast, models.HourlyEntry{
				Time:          entry.DtTxt,
				Temperature:   units.Fahrenheit(entry.Main.Temp),
				Condition:     cond,
				Precipitation: int(entry.Pop * 100),
				Icon:          entryIcon,
			})
		}

		date := entry.DtTxt
		if len(date) >= 10 {
			date = date[:10]
		}
		if len(days) == 0 || days[len(days)-1].date != date {
			d := dayAgg{date: date, high: entry.Main.TempMax, low: entry.Main.TempMin, pop: entry.Pop}
			if len(entry.Weather) > 0 {
				d.condition = entry.Weather[0].Main
				d.description = entry.Weather[0].Description
				d.icon = entry.Weather[0].Icon
			}
			days = append(days, d)
			continue
		}
		last := &days[len(days)-1]
		if entry.Main.TempMax > last.high {
			last.high = entry.Main.TempMax
		}
		if entry.Main.TempMin < last.low {
			last.low = entry.Main.TempMin
		}
		if entry.Pop > last.pop {
			last.pop = entry.Pop
		}
	}

	for _, d := range days {
		if len(src.DailyForecast) >= maxDailyEntries {
			break
		}
		src.DailyForecast = append(src.DailyForecast, models.DailyEntry{
			Day:           d.date,
			Condition:     d.condition,
			Description:   d.description,
			HighTemp:      units.Fahrenheit(d.high),
			LowTemp:       units.Fahrenheit(d.low),
			Precipitation: int(d.pop * 100),
			Icon:          d.icon,
		})
	}

	return src, nil
}
