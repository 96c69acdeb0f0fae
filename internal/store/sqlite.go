// Package store keeps the forecast history: which locations the scheduler
// tracks and how aggregation agreement and ensemble confidence have moved
// over time. Request handling never writes here; only the scheduler does.
package store

import (
	"database/sql"
	"time"

	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/units"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertLocation(loc models.Location) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO locations (name, latitude, longitude, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(latitude, longitude) DO UPDATE SET
			name = excluded.name,
			active = excluded.active
	`, loc.Name, loc.Latitude, loc.Longitude, loc.Active)
	if err != nil {
		return 0, err
	}

	// last_insert_rowid is not reliable on the conflict path, so resolve
	// the id by key instead.
	var id int64
	err = s.db.QueryRow(
		`SELECT id FROM locations WHERE latitude = ? AND longitude = ?`,
		loc.Latitude, loc.Longitude,
	).Scan(&id)
	return id, err
}

func (s *Store) ActiveLocations() ([]models.Location, error) {
	rows, err := s.db.Query(`SELECT id, name, latitude, longitude, active FROM locations WHERE active = TRUE ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.Active); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (s *Store) InsertAggregationRun(run models.AggregationRun) error {
	_, err := s.db.Exec(`
		INSERT INTO aggregation_runs (location_id, fetched_at, source_count, agreement, temperature, refined, raw_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id, fetched_at) DO NOTHING
	`, run.LocationID, run.FetchedAt, run.SourceCount, run.Agreement, float64(run.Temperature), run.Refined, run.RawJSON)
	return err
}

func (s *Store) LatestAggregationRun(locationID int64) (*models.AggregationRun, error) {
	row := s.db.QueryRow(`
		SELECT id, location_id, fetched_at, source_count, agreement, temperature, refined, raw_json
		FROM aggregation_runs
		WHERE location_id = ?
		ORDER BY fetched_at DESC
		LIMIT 1
	`, locationID)

	var run models.AggregationRun
	var temp float64
	err := row.Scan(&run.ID, &run.LocationID, &run.FetchedAt, &run.SourceCount, &run.Agreement, &temp, &run.Refined, &run.RawJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.Temperature = units.Fahrenheit(temp)
	return &run, nil
}

func (s *Store) AggregationRuns(locationID int64, start, end time.Time) ([]models.AggregationRun, error) {
	rows, err := s.db.Query(`
		SELECT id, location_id, fetched_at, source_count, agreement, temperature, refined, raw_json
		FROM aggregation_runs
		WHERE location_id = ? AND fetched_at >= ? AND fetched_at <= ?
		ORDER BY fetched_at ASC
	`, locationID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.AggregationRun
	for rows.Next() {
		var run models.AggregationRun
		var temp float64
		if err := rows.Scan(&run.ID, &run.LocationID, &run.FetchedAt, &run.SourceCount, &run.Agreement, &temp, &run.Refined, &run.RawJSON); err != nil {
			return nil, err
		}
		run.Temperature = units.Fahrenheit(temp)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) InsertEnsembleRun(run models.EnsembleRun) error {
	_, err := s.db.Exec(`
		INSERT INTO ensemble_runs (location_id, fetched_at, confidence, synthetic, avg_spread)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(location_id, fetched_at) DO NOTHING
	`, run.LocationID, run.FetchedAt, string(run.Confidence), run.Synthetic, run.AvgSpread)
	return err
}

func (s *Store) RecentEnsembleRuns(locationID int64, limit int) ([]models.EnsembleRun, error) {
	rows, err := s.db.Query(`
		SELECT id, location_id, fetched_at, confidence, synthetic, avg_spread
		FROM ensemble_runs
		WHERE location_id = ?
		ORDER BY fetched_at DESC
		LIMIT ?
	`, locationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.EnsembleRun
	for rows.Next() {
		var run models.EnsembleRun
		var confidence string
		if err := rows.Scan(&run.ID, &run.LocationID, &run.FetchedAt, &confidence, &run.Synthetic, &run.AvgSpread); err != nil {
			return nil, err
		}
		run.Confidence = models.Confidence(confidence)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
