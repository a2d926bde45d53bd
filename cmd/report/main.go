package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"airquality-platform/internal/config"
	"airquality-platform/internal/repository"
	"airquality-platform/internal/services"
	"airquality-platform/pkg/database"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

var datasetPath string

var rootCmd = &cobra.Command{
	Use:   "airquality-report",
	Short: "Air quality dashboard in the terminal",
	Long: `Computes the dashboard sections for one station dataset and prints
them as text tables, optionally exporting an XLSX workbook.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&datasetPath, "dataset", "", "CSV file to load instead of the configured source")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDashboard loads the configured dataset and wraps it in a dashboard service.
// The returned close function releases the database when one was opened.
func loadDashboard(ctx context.Context) (*services.DashboardService, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if datasetPath != "" {
		cfg.Dataset.Source = config.SourceCSV
		cfg.Dataset.Path = datasetPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := logging.NewStructuredLogger("airquality-report", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(io.Discard)
	if cfg.Logging.Level == "debug" {
		logger.SetOutput(os.Stderr)
	}
	metricsCollector := metrics.NewCollector("airquality_report", nil)

	var (
		source services.DatasetSource = &services.CSVSource{Path: cfg.Dataset.Path}
		closer                        = func() {}
	)
	if cfg.Dataset.Source == config.SourcePostgres {
		db, err := database.NewPostgresDB(cfg.Database.Postgres(), logger, metricsCollector)
		if err != nil {
			return nil, nil, err
		}
		closer = func() { db.Close() }
		source = &services.PostgresSource{
			Repo:    repository.NewAirQualityRepository(db, logger, metricsCollector),
			Station: cfg.Dataset.Station,
		}
	}

	ds, err := services.LoadDataset(ctx, source, logger, metricsCollector)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return services.NewDashboardService(ds, services.AnalysisOptions{
		DecompositionPeriod: cfg.Analysis.DecompositionPeriod,
		CorrelationFields:   cfg.Analysis.CorrelationFields,
		DefaultPollutant:    cfg.Analysis.DefaultPollutant,
	}, logger, metricsCollector), closer, nil
}
