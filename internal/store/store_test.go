package store_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/store"

	_ "modernc.org/sqlite"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestUpsertLocation_Idempotent(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	id1, err := s.UpsertLocation(models.Location{Name: "Austin", Latitude: 30.27, Longitude: -97.74, Active: true})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.UpsertLocation(models.Location{Name: "Austin TX", Latitude: 30.27, Longitude: -97.74, Active: true})
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("same coordinates yielded different ids: %d vs %d", id1, id2)
	}

	locations, err := s.ActiveLocations()
	if err != nil {
		t.Fatal(err)
	}
	if len(locations) != 1 {
		t.Fatalf("locations = %d, want 1", len(locations))
	}
	if locations[0].Name != "Austin TX" {
		t.Errorf("name = %q, want updated name", locations[0].Name)
	}
}

func TestActiveLocations_ExcludesInactive(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	if _, err := s.UpsertLocation(models.Location{Name: "Active", Latitude: 1, Longitude: 1, Active: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertLocation(models.Location{Name: "Inactive", Latitude: 2, Longitude: 2, Active: false}); err != nil {
		t.Fatal(err)
	}

	locations, err := s.ActiveLocations()
	if err != nil {
		t.Fatal(err)
	}
	if len(locations) != 1 || locations[0].Name != "Active" {
		t.Errorf("locations = %+v, want only the active one", locations)
	}
}

func TestAggregationRuns_RoundTrip(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	locID, err := s.UpsertLocation(models.Location{Name: "Austin", Latitude: 30.27, Longitude: -97.74, Active: true})
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.InsertAggregationRun(models.AggregationRun{
			LocationID:  locID,
			FetchedAt:   base.Add(time.Duration(i) * time.Hour),
			SourceCount: 3,
			Agreement:   80 + float64(i),
			Temperature: 72,
			Refined:     i == 2,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	latest, err := s.LatestAggregationRun(locID)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil {
		t.Fatal("expected a latest run")
	}
	if latest.Agreement != 82 {
		t.Errorf("latest agreement = %v, want 82", latest.Agreement)
	}
	if !latest.Refined {
		t.Error("latest run should be refined")
	}

	runs, err := s.AggregationRuns(locID, base, base.Add(90*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("runs in window = %d, want 2", len(runs))
	}
}

func TestInsertAggregationRun_DuplicateIgnored(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	locID, err := s.UpsertLocation(models.Location{Name: "X", Latitude: 5, Longitude: 5, Active: true})
	if err != nil {
		t.Fatal(err)
	}

	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	run := models.AggregationRun{LocationID: locID, FetchedAt: at, SourceCount: 2, Agreement: 90, Temperature: 70}
	if err := s.InsertAggregationRun(run); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertAggregationRun(run); err != nil {
		t.Fatal(err)
	}

	runs, err := s.AggregationRuns(locID, at.Add(-time.Minute), at.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("runs = %d, want 1 (duplicate ignored)", len(runs))
	}
}

func TestEnsembleRuns_RoundTrip(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	locID, err := s.UpsertLocation(models.Location{Name: "Austin", Latitude: 30.27, Longitude: -97.74, Active: true})
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	confidences := []models.Confidence{models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow}
	for i, c := range confidences {
		err := s.InsertEnsembleRun(models.EnsembleRun{
			LocationID: locID,
			FetchedAt:  base.Add(time.Duration(i) * 6 * time.Hour),
			Confidence: c,
			Synthetic:  c == models.ConfidenceLow,
			AvgSpread:  float64(i) * 5,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.RecentEnsembleRuns(locID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].Confidence != models.ConfidenceLow {
		t.Errorf("newest confidence = %q, want low", runs[0].Confidence)
	}
	if !runs[0].Synthetic {
		t.Error("newest run should carry synthetic flag")
	}
}
