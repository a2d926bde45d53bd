package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"airquality-platform/internal/config"
	"airquality-platform/pkg/database"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	dir := flag.String("dir", "migrations", "Directory containing the migration files")
	flag.Parse()

	if *direction != "up" && *direction != "down" {
		fmt.Fprintf(os.Stderr, "Invalid direction %q: expected up or down\n", *direction)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airquality-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	ctx := context.Background()

	db, err := database.NewPostgresDB(cfg.Database.Postgres(), logger, metrics.NewCollector("airquality_migrate", nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	migrationPath := filepath.Join(*dir, fmt.Sprintf("001_create_schema.%s.sql", *direction))
	content, err := os.ReadFile(migrationPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read migration file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Running migration: %s\n", migrationPath)

	if _, err := db.ExecContext(ctx, "migrate", string(content)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")
}
