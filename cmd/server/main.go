package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airquality-platform/internal/config"
	"airquality-platform/internal/handlers"
	"airquality-platform/internal/repository"
	"airquality-platform/internal/services"
	"airquality-platform/pkg/database"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airquality-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting air quality dashboard API server", logging.Fields{
		"version":        "1.0.0",
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"dataset_source": cfg.Dataset.Source,
	})

	metricsCollector := metrics.NewCollector("airquality_platform", nil)

	// Resolve the dataset source; the database is only opened when it backs the dataset
	var (
		source services.DatasetSource
		db     *database.PostgresDB
	)
	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		db, err = database.NewPostgresDB(cfg.Database.Postgres(), logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		repo := repository.NewAirQualityRepository(db, logger, metricsCollector)
		source = &services.PostgresSource{Repo: repo, Station: cfg.Dataset.Station}
	default:
		source = &services.CSVSource{Path: cfg.Dataset.Path}
	}

	ds, err := services.LoadDataset(ctx, source, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{
			"source": source.Describe(),
		}, err)
	}

	dashboard := services.NewDashboardService(ds, services.AnalysisOptions{
		DecompositionPeriod: cfg.Analysis.DecompositionPeriod,
		CorrelationFields:   cfg.Analysis.CorrelationFields,
		DefaultPollutant:    cfg.Analysis.DefaultPollutant,
	}, logger, metricsCollector)

	dashboardHandler := handlers.NewDashboardHandler(dashboard, logger, metricsCollector)
	if db != nil {
		dashboardHandler.AddHealthCheck("database", db.HealthCheck)
	}

	router := mux.NewRouter()
	router.Use(
		handlers.RequestID,
		handlers.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger, metricsCollector),
		dashboardHandler.Instrument,
	)
	dashboardHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
			"station": ds.Station(),
			"records": ds.Len(),
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
