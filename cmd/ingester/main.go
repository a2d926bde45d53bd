package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"airquality-platform/internal/config"
	"airquality-platform/internal/repository"
	"airquality-platform/internal/services"
	"airquality-platform/pkg/database"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

func main() {
	file := flag.String("file", "", "Single station CSV file to ingest")
	dataDir := flag.String("data-dir", "./data", "Directory containing PRSA station CSV files")
	batchSize := flag.Int("batch-size", 1000, "Number of records copied per batch")
	replace := flag.Bool("replace", false, "Delete a station's stored records before loading")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airquality-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting air quality ingestion", logging.Fields{
		"version":    "1.0.0",
		"file":       *file,
		"data_dir":   *dataDir,
		"batch_size": *batchSize,
		"replace":    *replace,
	})

	metricsCollector := metrics.NewCollector("airquality_ingester", nil)

	db, err := database.NewPostgresDB(cfg.Database.Postgres(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	repo := repository.NewAirQualityRepository(db, logger, metricsCollector)
	ingestionService := services.NewIngestionService(repo, logger, metricsCollector)

	opts := services.IngestOptions{BatchSize: *batchSize, Replace: *replace}

	var result *services.IngestionResult
	if *file != "" {
		result, err = ingestionService.IngestFile(ctx, *file, opts)
	} else {
		result, err = ingestionService.IngestDirectory(ctx, *dataDir, opts)
	}
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Stations:           %s\n", strings.Join(result.Stations, ", "))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Skipped Rows:       %d\n", result.SkippedRows)
	fmt.Printf("Batches:            %d\n", result.Batches)
	if *replace {
		fmt.Printf("Replaced Records:   %d\n", result.ReplacedRecords)
	}
	fmt.Printf("Duration:           %v\n", result.Duration)
	if secs := result.Duration.Seconds(); secs > 0 {
		fmt.Printf("Records/Second:     %.2f\n", float64(result.TotalRecords)/secs)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed", logging.Fields{
		"total_records":    result.TotalRecords,
		"skipped_rows":     result.SkippedRows,
		"failed_files":     len(result.Errors),
		"duration_seconds": result.Duration.Seconds(),
	})
}
