// Package weather orchestrates the per-request fetch fan-out and hands the
// surviving sources to the aggregation core.
package weather

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rainzhq/rainz/internal/aggregate"
	"github.com/rainzhq/rainz/internal/metrics"
	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/providers"
)

// Refiner optionally unifies an aggregation via an external model. A nil
// Refiner or a refinement failure leaves the raw aggregated source in
// place; refinement can only add, never break.
type Refiner interface {
	Refine(ctx context.Context, result models.AggregatedResult) (*models.RefinedForecast, error)
}

type Service struct {
	providers []providers.Provider
	breakers  map[string]*gobreaker.CircuitBreaker
	refiner   Refiner
}

// NewService registers the providers in ranking order. Each gets its own
// circuit breaker so one flapping upstream is skipped without burning a
// timeout on every request.
func NewService(ps []providers.Provider, refiner Refiner) *Service {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(ps))
	for _, p := range ps {
		breakers[p.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     p.Name(),
			Interval: 1 * time.Minute,
			Timeout:  2 * time.Minute,
		})
	}
	return &Service{providers: ps, breakers: breakers, refiner: refiner}
}

// FetchSources fans out one fetch per provider and returns whatever
// succeeded, in registration order. Failures are logged and omitted; the
// caller decides what an empty result means.
func (s *Service) FetchSources(ctx context.Context, lat, lon float64, locationName string) []models.WeatherSource {
	results := make([]*models.WeatherSource, len(s.providers))
	var wg sync.WaitGroup

	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()

			out, err := s.breakers[p.Name()].Execute(func() (interface{}, error) {
				return p.Fetch(ctx, lat, lon, locationName)
			})
			if err != nil {
				log.Printf("weather: provider %s failed: %v", p.Name(), err)
				return
			}
			results[i] = out.(*models.WeatherSource)
		}(i, p)
	}
	wg.Wait()

	sources := make([]models.WeatherSource, 0, len(results))
	for _, r := range results {
		if r != nil {
			sources = append(sources, *r)
		}
	}
	return sources
}

// Aggregate runs the full pipeline for a location: fetch, rank, blend,
// agreement, optional refinement.
func (s *Service) Aggregate(ctx context.Context, lat, lon float64, locationName string) (models.AggregatedResult, error) {
	sources := s.FetchSources(ctx, lat, lon, locationName)

	result, err := aggregate.Result(sources)
	if err != nil {
		metrics.AggregationsTotal.WithLabelValues("empty").Inc()
		return models.AggregatedResult{}, err
	}
	metrics.AggregationsTotal.WithLabelValues("ok").Inc()

	if s.refiner != nil {
		refined, err := s.refiner.Refine(ctx, result)
		if err != nil {
			// Degrade to the raw aggregated source.
			log.Printf("weather: refinement failed, using aggregated source: %v", err)
			metrics.RefinementsTotal.WithLabelValues("error").Inc()
		} else {
			metrics.RefinementsTotal.WithLabelValues("ok").Inc()
			result.Refined = refined
		}
	}

	return result, nil
}
