package services

import (
	"context"
	"time"

	"airquality-platform/internal/dataset"
	"airquality-platform/internal/models"
	"airquality-platform/internal/repository"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// DatasetSource produces the immutable dataset served for the process lifetime
type DatasetSource interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
	Describe() string
}

// CSVSource reads a station CSV file
type CSVSource struct {
	Path string
}

func (s *CSVSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	return dataset.Load(s.Path)
}

func (s *CSVSource) Describe() string {
	return "csv:" + s.Path
}

// PostgresSource reads a station's raw records from the database
type PostgresSource struct {
	Repo    repository.AirQualityRepository
	Station string
}

func (s *PostgresSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	records, err := s.Repo.ListRecords(ctx, s.Station)
	if err != nil {
		return nil, &models.LoadError{Path: s.Describe(), Reason: "failed to read records", Err: err}
	}
	if len(records) == 0 {
		return nil, &models.LoadError{Path: s.Describe(), Reason: "station has no records"}
	}
	for i := range records {
		if err := records[i].ValidateTimestamp(); err != nil {
			return nil, &models.LoadError{Path: s.Describe(), Reason: "stored record has an invalid timestamp", Err: err}
		}
	}
	return dataset.FromRecords(s.Station, records), nil
}

func (s *PostgresSource) Describe() string {
	return "postgres:" + s.Station
}

// LoadDataset loads from src and records load metrics
func LoadDataset(ctx context.Context, src DatasetSource, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*dataset.Dataset, error) {
	start := time.Now()

	ds, err := src.Load(ctx)
	if err != nil {
		logger.Error(ctx, "[DATASET_LOAD_ERROR] Failed to load dataset", logging.Fields{
			"source": src.Describe(),
		}, err)
		return nil, err
	}

	duration := time.Since(start)
	metricsCollector.RecordDatasetLoad(duration, ds.Len(), ds.Skipped())

	logger.Info(ctx, "[DATASET_LOADED] Dataset loaded", logging.Fields{
		"source":       src.Describe(),
		"station":      ds.Station(),
		"records":      ds.Len(),
		"skipped_rows": ds.Skipped(),
		"periods":      len(ds.Periods()),
		"duration_ms":  duration.Milliseconds(),
	})

	return ds, nil
}
