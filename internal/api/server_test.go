package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rainzhq/rainz/internal/api"
	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/providers"
	"github.com/rainzhq/rainz/internal/units"
	"github.com/rainzhq/rainz/internal/weather"
)

type stubProvider struct {
	name     string
	accuracy float64
	temp     float64
	err      error
}

func (p *stubProvider) Name() string      { return p.name }
func (p *stubProvider) Accuracy() float64 { return p.accuracy }

func (p *stubProvider) Fetch(ctx context.Context, lat, lon float64, locationName string) (*models.WeatherSource, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &models.WeatherSource{
		Source:   p.name,
		Location: locationName,
		Accuracy: p.accuracy,
		CurrentWeather: models.CurrentWeather{
			Temperature: units.Fahrenheit(p.temp),
			Condition:   "Clear",
		},
	}, nil
}

type stubEnsemble struct {
	raw   string
	times []string
	err   error
}

func (f *stubEnsemble) FetchRawHourly(ctx context.Context, lat, lon float64) ([]byte, []string, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return []byte(f.raw), f.times, nil
}

func newTestServer(ps []providers.Provider, ensemble api.EnsembleFetcher) *api.Server {
	return api.NewServer(weather.NewService(ps, nil), ensemble, nil, "8080")
}

func postJSON(t *testing.T, srv *api.Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(nil, &stubEnsemble{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status"`) {
		t.Error("expected status field in JSON response")
	}
}

func TestAggregateWeather_OK(t *testing.T) {
	t.Parallel()
	srv := newTestServer([]providers.Provider{
		&stubProvider{name: "A", accuracy: 0.92, temp: 70},
		&stubProvider{name: "B", accuracy: 0.88, temp: 74},
		&stubProvider{name: "C", accuracy: 0.85, temp: 72},
	}, &stubEnsemble{})

	w := postJSON(t, srv, "/aggregate-weather", `{"lat": 30.27, "lon": -97.74, "locationName": "Austin"}`)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.AggregatedResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Sources) != 3 {
		t.Errorf("sources = %d, want 3", len(result.Sources))
	}
	if result.MostAccurate.Source != "A" {
		t.Errorf("most accurate = %q, want A", result.MostAccurate.Source)
	}
	if result.Aggregated.CurrentWeather.Temperature != 72 {
		t.Errorf("aggregated temp = %v, want 72", result.Aggregated.CurrentWeather.Temperature)
	}
	if result.ModelAgreement != 80 {
		t.Errorf("agreement = %v, want 80", result.ModelAgreement)
	}
}

func TestAggregateWeather_PartialFailureStillOK(t *testing.T) {
	t.Parallel()
	srv := newTestServer([]providers.Provider{
		&stubProvider{name: "A", accuracy: 0.92, err: errors.New("upstream 503")},
		&stubProvider{name: "B", accuracy: 0.88, temp: 71},
	}, &stubEnsemble{})

	w := postJSON(t, srv, "/aggregate-weather", `{"lat": 0, "lon": 0}`)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result models.AggregatedResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Sources) != 1 {
		t.Errorf("sources = %d, want 1", len(result.Sources))
	}
	if result.ModelAgreement != 100 {
		t.Errorf("single-source agreement = %v, want 100", result.ModelAgreement)
	}
}

func TestAggregateWeather_AllDown(t *testing.T) {
	t.Parallel()
	srv := newTestServer([]providers.Provider{
		&stubProvider{name: "A", err: errors.New("secret provider detail")},
	}, &stubEnsemble{})

	w := postJSON(t, srv, "/aggregate-weather", `{"lat": 0, "lon": 0}`)
	if w.Code != 500 {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "secret provider detail") {
		t.Error("provider error text leaked to the client")
	}
	if !strings.Contains(body, "service temporarily unavailable") {
		t.Errorf("expected generic message, got %s", body)
	}
}

func TestAggregateWeather_Validation(t *testing.T) {
	t.Parallel()
	srv := newTestServer(nil, &stubEnsemble{})

	tests := []struct {
		name string
		body string
	}{
		{"missing lat", `{"lon": 10}`},
		{"lat out of range", `{"lat": 91, "lon": 10}`},
		{"lon out of range", `{"lat": 10, "lon": -181}`},
		{"name too long", `{"lat": 10, "lon": 10, "locationName": "` + strings.Repeat("x", 201) + `"}`},
		{"not json", `lat=10`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, srv, "/aggregate-weather", tt.body)
			if w.Code != 400 {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), "Invalid input parameters") {
				t.Errorf("expected validation error body, got %s", w.Body.String())
			}
		})
	}
}

func TestAggregateWeather_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	srv := newTestServer(nil, &stubEnsemble{})

	req := httptest.NewRequest("GET", "/aggregate-weather", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != 405 {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestEnsembleForecast_OK(t *testing.T) {
	t.Parallel()
	srv := newTestServer(nil, &stubEnsemble{
		raw:   `{"temperature_2m_member01": [70, 71], "temperature_2m_member02": [72, 73], "precipitation_member01": [0, 0.1], "precipitation_member02": [0.1, 0.2]}`,
		times: []string{"2026-09-01T00:00", "2026-09-01T01:00"},
	})

	w := postJSON(t, srv, "/fetch-ensemble-forecast", `{"lat": 30.27, "lon": -97.74}`)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var forecast models.EnsembleForecast
	if err := json.Unmarshal(w.Body.Bytes(), &forecast); err != nil {
		t.Fatal(err)
	}
	if forecast.Synthetic {
		t.Error("genuine members flagged synthetic")
	}
	if len(forecast.Hourly.Time) != 2 {
		t.Errorf("time length = %d, want 2", len(forecast.Hourly.Time))
	}
	if forecast.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", forecast.Confidence)
	}
}

func TestEnsembleForecast_SyntheticFallback(t *testing.T) {
	t.Parallel()
	srv := newTestServer(nil, &stubEnsemble{
		raw:   `{"temperature_2m": [70, 71, 72]}`,
		times: []string{"a", "b", "c"},
	})

	w := postJSON(t, srv, "/fetch-ensemble-forecast", `{"lat": 0, "lon": 0}`)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var forecast models.EnsembleForecast
	if err := json.Unmarshal(w.Body.Bytes(), &forecast); err != nil {
		t.Fatal(err)
	}
	if !forecast.Synthetic {
		t.Error("expected synthetic flag on fabricated bands")
	}
}

func TestEnsembleForecast_NoData(t *testing.T) {
	t.Parallel()
	srv := newTestServer(nil, &stubEnsemble{raw: `{}`})

	w := postJSON(t, srv, "/fetch-ensemble-forecast", `{"lat": 0, "lon": 0}`)
	if w.Code != 500 {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "service temporarily unavailable") {
		t.Errorf("expected generic message, got %s", w.Body.String())
	}
}

func TestEnsembleForecast_FetchError(t *testing.T) {
	t.Parallel()
	srv := newTestServer(nil, &stubEnsemble{err: errors.New("upstream down")})

	w := postJSON(t, srv, "/fetch-ensemble-forecast", `{"lat": 0, "lon": 0}`)
	if w.Code != 500 {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "upstream down") {
		t.Error("upstream error text leaked to the client")
	}
}
