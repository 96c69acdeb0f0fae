// Package providers holds the weather-data API integrations. Each client
// normalizes its provider's response into a models.WeatherSource with the
// core's fixed units (°F, mph, mb, inches) requested at the API level.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rainzhq/rainz/internal/metrics"
	"github.com/rainzhq/rainz/internal/models"
)

// Provider is one external weather-data integration.
type Provider interface {
	Name() string
	// Accuracy is the hand-assigned weight in [0,1] used to rank sources.
	Accuracy() float64
	Fetch(ctx context.Context, lat, lon float64, locationName string) (*models.WeatherSource, error)
}

const maxRetryElapsed = 30 * time.Second

// fetchJSON gets a URL with retry on rate limiting and transient upstream
// errors. Anything else fails immediately; the caller simply drops this
// provider from the aggregation.
func fetchJSON(ctx context.Context, client *http.Client, provider, url string) ([]byte, error) {
	var body []byte
	start := time.Now()

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("transient: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxRetryElapsed
	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ProviderCallsTotal.WithLabelValues(provider, status).Inc()
	metrics.ProviderLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return body, nil
}

// compassDirection converts degrees to a 16-point compass label.
func compassDirection(deg float64) string {
	dirs := []string{
		"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
	}
	idx := int((deg+11.25)/22.5) % 16
	if idx < 0 {
		idx += 16
	}
	return dirs[idx]
}
