package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"airquality-platform/internal/dataset"
	"airquality-platform/internal/repository"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// IngestionService copies station CSV files into the raw-record store
type IngestionService struct {
	repo    repository.AirQualityRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles      int
	TotalRecords    int
	SkippedRows     int
	Batches         int
	ReplacedRecords int64
	Stations        []string
	Duration        time.Duration
	Errors          []string
}

// IngestOptions controls one ingestion run
type IngestOptions struct {
	BatchSize int
	// Replace deletes a station's stored records before loading
	Replace bool
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.AirQualityRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory ingests every *.csv station file in a directory.
// A failing file is reported in Errors and does not stop the others.
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, opts IngestOptions) (*IngestionResult, error) {
	startTime := time.Now()

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no data files found in %s", dataDir)
	}

	s.logger.Info(ctx, "[INGEST_FILES] Found data files", logging.Fields{
		"data_dir":   dataDir,
		"file_count": len(files),
		"stage":      "FILE_DISCOVERY",
	})

	result := &IngestionResult{TotalFiles: len(files), Errors: make([]string, 0)}
	for _, path := range files {
		fileResult, err := s.IngestFile(ctx, path, opts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", path, err))
			continue
		}
		result.TotalRecords += fileResult.TotalRecords
		result.SkippedRows += fileResult.SkippedRows
		result.Batches += fileResult.Batches
		result.ReplacedRecords += fileResult.ReplacedRecords
		result.Stations = append(result.Stations, fileResult.Stations...)
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[INGEST_COMPLETE] Directory ingestion completed", logging.Fields{
		"total_files":      result.TotalFiles,
		"total_records":    result.TotalRecords,
		"skipped_rows":     result.SkippedRows,
		"duration_seconds": result.Duration.Seconds(),
		"error_count":      len(result.Errors),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// IngestFile loads one station CSV and writes its records in batches
func (s *IngestionService) IngestFile(ctx context.Context, path string, opts IngestOptions) (*IngestionResult, error) {
	startTime := time.Now()
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	s.logger.Info(ctx, "[INGEST_START] Starting file ingestion", logging.Fields{
		"file_path":  path,
		"batch_size": opts.BatchSize,
		"replace":    opts.Replace,
		"stage":      "INITIALIZATION",
	})

	ds, err := dataset.Load(path)
	if err != nil {
		s.metrics.RecordIngestionError("load_error")
		s.logger.Error(ctx, "[INGEST_FILE_ERROR] Failed to load file", logging.Fields{
			"file_path": path,
			"stage":     "LOAD",
		}, err)
		return nil, err
	}

	station := ds.Station()
	if station == "" {
		station = stationFromFileName(path)
	}

	if err := s.repo.CreateStation(ctx, station); err != nil {
		s.metrics.RecordIngestionError("station_error")
		return nil, fmt.Errorf("failed to create station: %w", err)
	}

	result := &IngestionResult{
		TotalFiles:  1,
		SkippedRows: ds.Skipped(),
		Stations:    []string{station},
		Errors:      make([]string, 0),
	}

	if opts.Replace {
		deleted, err := s.repo.DeleteRecords(ctx, station)
		if err != nil {
			s.metrics.RecordIngestionError("delete_error")
			return nil, fmt.Errorf("failed to replace station records: %w", err)
		}
		result.ReplacedRecords = deleted
	}

	records := ds.Records()
	for start := 0; start < len(records); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.repo.CreateRecordsBatch(ctx, station, records[start:end]); err != nil {
			s.metrics.RecordIngestionError("batch_error")
			s.logger.Error(ctx, "[INGEST_BATCH_ERROR] Batch insert failed", logging.Fields{
				"station": station,
				"offset":  start,
				"stage":   "BATCH_INSERT",
			}, err)
			return nil, fmt.Errorf("failed to insert batch at offset %d: %w", start, err)
		}
		result.Batches++
		result.TotalRecords += end - start
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	fields := logging.Fields{
		"file_path":        path,
		"station":          station,
		"total_records":    result.TotalRecords,
		"skipped_rows":     result.SkippedRows,
		"batches":          result.Batches,
		"replaced_records": result.ReplacedRecords,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "FILE_COMPLETE",
	}
	if secs := result.Duration.Seconds(); secs > 0 {
		fields["records_per_second"] = float64(result.TotalRecords) / secs
	}
	s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", fields)

	return result, nil
}

// stationFromFileName extracts the station from PRSA_Data_<Station>_<range>.csv,
// falling back to the bare file name
func stationFromFileName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(name, "_")
	if len(parts) >= 4 && parts[0] == "PRSA" && parts[1] == "Data" {
		return strings.Join(parts[2:len(parts)-1], "_")
	}
	return name
}
