// Package ingest periodically snapshots aggregation and ensemble results
// for the tracked locations so agreement and confidence history can be
// charted. The request path never depends on this; it only writes.
package ingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rainzhq/rainz/internal/ensemble"
	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/store"
	"github.com/rainzhq/rainz/internal/weather"
)

// EnsembleFetcher matches the provider client used by the API layer.
type EnsembleFetcher interface {
	FetchRawHourly(ctx context.Context, lat, lon float64) ([]byte, []string, error)
}

const (
	aggregationSchedule = "@every 30m"
	ensembleSchedule    = "@every 6h"

	snapshotTimeout = 60 * time.Second
)

type Scheduler struct {
	store    *store.Store
	weather  *weather.Service
	ensemble EnsembleFetcher
	cron     *cron.Cron
}

func NewScheduler(st *store.Store, ws *weather.Service, ef EnsembleFetcher) *Scheduler {
	return &Scheduler{
		store:    st,
		weather:  ws,
		ensemble: ef,
		cron:     cron.New(),
	}
}

// Run snapshots once immediately, then on the cron schedule until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.SnapshotAggregations(ctx)
	s.SnapshotEnsembles(ctx)

	if _, err := s.cron.AddFunc(aggregationSchedule, func() { s.SnapshotAggregations(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(ensembleSchedule, func() { s.SnapshotEnsembles(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	<-ctx.Done()
	log.Println("scheduler: shutting down")

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return nil
}

// SnapshotAggregations records one aggregation run per active location.
func (s *Scheduler) SnapshotAggregations(ctx context.Context) {
	locations, err := s.store.ActiveLocations()
	if err != nil {
		log.Printf("scheduler: list locations: %v", err)
		return
	}

	for _, loc := range locations {
		runCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
		result, err := s.weather.Aggregate(runCtx, loc.Latitude, loc.Longitude, loc.Name)
		cancel()
		if err != nil {
			log.Printf("scheduler: aggregate %s: %v", loc.Name, err)
			continue
		}

		raw, err := json.Marshal(result)
		if err != nil {
			log.Printf("scheduler: marshal result for %s: %v", loc.Name, err)
			continue
		}

		run := models.AggregationRun{
			LocationID:  loc.ID,
			FetchedAt:   time.Now().UTC().Truncate(time.Minute),
			SourceCount: len(result.Sources),
			Agreement:   result.ModelAgreement,
			Temperature: result.Aggregated.CurrentWeather.Temperature,
			Refined:     result.Refined != nil,
			RawJSON:     string(raw),
		}
		if err := s.store.InsertAggregationRun(run); err != nil {
			log.Printf("scheduler: record run for %s: %v", loc.Name, err)
			continue
		}
		log.Printf("scheduler: recorded aggregation for %s (%d sources, %.0f%% agreement)",
			loc.Name, run.SourceCount, run.Agreement)
	}
}

// SnapshotEnsembles records one ensemble run per active location.
func (s *Scheduler) SnapshotEnsembles(ctx context.Context) {
	if s.ensemble == nil {
		return
	}

	locations, err := s.store.ActiveLocations()
	if err != nil {
		log.Printf("scheduler: list locations: %v", err)
		return
	}

	for _, loc := range locations {
		runCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
		raw, times, err := s.ensemble.FetchRawHourly(runCtx, loc.Latitude, loc.Longitude)
		cancel()
		if err != nil {
			log.Printf("scheduler: ensemble fetch %s: %v", loc.Name, err)
			continue
		}

		forecast, err := ensemble.BuildForecast(raw, times)
		if err != nil {
			log.Printf("scheduler: ensemble build %s: %v", loc.Name, err)
			continue
		}

		run := models.EnsembleRun{
			LocationID: loc.ID,
			FetchedAt:  time.Now().UTC().Truncate(time.Minute),
			Confidence: forecast.Confidence,
			Synthetic:  forecast.Synthetic,
			AvgSpread:  ensemble.AvgTemperatureSpread(forecast),
		}
		if err := s.store.InsertEnsembleRun(run); err != nil {
			log.Printf("scheduler: record ensemble run for %s: %v", loc.Name, err)
			continue
		}
		log.Printf("scheduler: recorded ensemble for %s (confidence %s, synthetic=%t)",
			loc.Name, run.Confidence, run.Synthetic)
	}
}
