package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/rainzhq/rainz/internal/httputil"
)

const ensembleBaseURL = "https://ensemble-api.open-meteo.com/v1/ensemble"

// EnsembleClient fetches raw multi-member hourly series from the Open-Meteo
// ensemble endpoint. The hourly object is returned as raw JSON because
// member array keys vary by model; the ensemble package owns the probing.
type EnsembleClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewEnsembleClient() *EnsembleClient {
	return &EnsembleClient{
		baseURL: ensembleBaseURL,
		model:   "gfs_seamless",
		client:  httputil.NewClient(),
	}
}

// FetchRawHourly returns the flat hourly object bytes and its time axis.
func (e *EnsembleClient) FetchRawHourly(ctx context.Context, lat, lon float64) ([]byte, []string, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lon))
	values.Set("hourly", "temperature_2m,precipitation")
	values.Set("models", e.model)
	values.Set("temperature_unit", "fahrenheit")
	values.Set("precipitation_unit", "inch")
	values.Set("forecast_days", "3")

	body, err := fetchJSON(ctx, e.client, "Ensemble", e.baseURL+"?"+values.Encode())
	if err != nil {
		return nil, nil, fmt.Errorf("ensemble: %w", err)
	}

	hourly := gjson.GetBytes(body, "hourly")
	if !hourly.Exists() {
		return nil, nil, fmt.Errorf("ensemble: response has no hourly block")
	}

	var times []string
	for _, t := range hourly.Get("time").Array() {
		times = append(times, t.String())
	}

	return []byte(hourly.Raw), times, nil
}
