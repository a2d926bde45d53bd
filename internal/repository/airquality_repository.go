package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"airquality-platform/internal/models"
	"airquality-platform/pkg/database"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// AirQualityRepository provides data access for raw hourly records
type AirQualityRepository interface {
	// Station operations
	CreateStation(ctx context.Context, name string) error
	ListStations(ctx context.Context) ([]models.Station, error)

	// Record operations
	CreateRecordsBatch(ctx context.Context, station string, records []models.Record) error
	DeleteRecords(ctx context.Context, station string) (int64, error)
	ListRecords(ctx context.Context, station string) ([]models.Record, error)
	CountRecords(ctx context.Context, station string) (int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// recordColumns is the COPY column order of air_quality_records
var recordColumns = []string{
	"station", "year", "month", "day", "hour",
	"pm25", "pm10", "so2", "no2", "co", "o3",
	"temp", "pres", "dewp", "rain", "wspm", "wd",
}

type airQualityRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAirQualityRepository creates a new air quality repository
func NewAirQualityRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) AirQualityRepository {
	return &airQualityRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateStation registers a station, ignoring duplicates
func (r *airQualityRepository) CreateStation(ctx context.Context, name string) error {
	query := `
		INSERT INTO stations (name, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (name) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, "insert_station", query, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_STATION] Station created", logging.Fields{
		"station": name,
	})

	return nil
}

// ListStations returns every station with its record count
func (r *airQualityRepository) ListStations(ctx context.Context) ([]models.Station, error) {
	query := `
		SELECT s.name, s.created_at, s.updated_at, COUNT(a.station) AS record_count
		FROM stations s
		LEFT JOIN air_quality_records a ON a.station = s.name
		GROUP BY s.name, s.created_at, s.updated_at
		ORDER BY s.name
	`

	var stations []models.Station
	if err := r.db.SelectContext(ctx, "list_stations", &stations, query); err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	return stations, nil
}

// CreateRecordsBatch bulk-loads records with COPY in a single transaction
func (r *airQualityRepository) CreateRecordsBatch(ctx context.Context, station string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		duration := time.Since(start)
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.metrics.DBQueryDuration.WithLabelValues("copy_records").Observe(duration.Seconds())
		r.logger.Debug(ctx, "[REPO_BATCH_COPY] Batch copy completed", logging.Fields{
			"station":     station,
			"count":       len(records),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("air_quality_records", recordColumns...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		_, err := stmt.ExecContext(ctx,
			station, rec.Year, rec.Month, rec.Day, rec.Hour,
			rec.PM25, rec.PM10, rec.SO2, rec.NO2, rec.CO, rec.O3,
			rec.TEMP, rec.PRES, rec.DEWP, rec.RAIN, rec.WSPM, rec.WD,
		)
		if err != nil {
			r.metrics.RecordDBError("copy_error")
			return fmt.Errorf("failed to copy record %04d-%02d-%02d %02d:00: %w", rec.Year, rec.Month, rec.Day, rec.Hour, err)
		}
	}

	// flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		r.metrics.RecordDBError("copy_error")
		return fmt.Errorf("failed to flush copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(records)))

	return nil
}

// DeleteRecords removes every record of a station
func (r *airQualityRepository) DeleteRecords(ctx context.Context, station string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "delete_records",
		`DELETE FROM air_quality_records WHERE station = $1`, station)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted records: %w", err)
	}

	return deleted, nil
}

// ListRecords returns a station's records in chronological order
func (r *airQualityRepository) ListRecords(ctx context.Context, station string) ([]models.Record, error) {
	query := `
		SELECT station, year, month, day, hour,
		       pm25, pm10, so2, no2, co, o3,
		       temp, pres, dewp, rain, wspm, wd
		FROM air_quality_records
		WHERE station = $1
		ORDER BY year, month, day, hour
	`

	var records []models.Record
	if err := r.db.SelectContext(ctx, "list_records", &records, query, station); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return records, nil
}

// CountRecords returns the number of records stored for a station
func (r *airQualityRepository) CountRecords(ctx context.Context, station string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, "count_records", &count,
		`SELECT COUNT(*) FROM air_quality_records WHERE station = $1`, station)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return count, nil
}

// HealthCheck performs a repository health check
func (r *airQualityRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
