package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"airquality-platform/internal/models"
	"airquality-platform/pkg/database"
)

// Dataset source kinds
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config is the process configuration, read from the environment
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Dataset   DatasetConfig
	Analysis  AnalysisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Postgres converts the settings to a connection pool configuration
func (d DatabaseConfig) Postgres() *database.Config {
	return &database.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

type LoggingConfig struct {
	Level string
}

// DatasetConfig selects where the hourly records come from
type DatasetConfig struct {
	Source  string
	Path    string
	Station string
}

// AnalysisConfig carries the tunables of the dashboard computations
type AnalysisConfig struct {
	DecompositionPeriod int
	CorrelationFields   []models.Field
	DefaultPollutant    models.Field
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoadConfig reads an optional .env file (or ENV_FILE) and then the environment.
// Variables already set in the environment win over the file.
func LoadConfig() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	correlationFields, err := models.ParseFields(getEnvList("ANALYSIS_CORRELATION_FIELDS", []string{
		"PM2.5", "PM10", "SO2", "NO2", "CO", "O3", "TEMP", "PRES", "DEWP", "RAIN",
	}))
	if err != nil {
		return nil, fmt.Errorf("ANALYSIS_CORRELATION_FIELDS: %w", err)
	}

	pollutant, err := models.ParseField(getEnv("ANALYSIS_DEFAULT_POLLUTANT", string(models.FieldPM25)))
	if err != nil {
		return nil, fmt.Errorf("ANALYSIS_DEFAULT_POLLUTANT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "airquality"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Dataset: DatasetConfig{
			Source:  strings.ToLower(getEnv("DATASET_SOURCE", SourceCSV)),
			Path:    getEnv("DATASET_PATH", "data/PRSA_Data_Aotizhongxin_20130301-20170228.csv"),
			Station: getEnv("DATASET_STATION", "Aotizhongxin"),
		},
		Analysis: AnalysisConfig{
			DecompositionPeriod: getEnvInt("ANALYSIS_DECOMPOSITION_PERIOD", 24),
			CorrelationFields:   correlationFields,
			DefaultPollutant:    pollutant,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 40),
		},
	}

	return cfg, nil
}

// Validate checks value ranges and cross-field requirements
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Path == "" {
			errs = append(errs, errors.New("DATASET_PATH is required when DATASET_SOURCE=csv"))
		}
	case SourcePostgres:
		if c.Dataset.Station == "" {
			errs = append(errs, errors.New("DATASET_STATION is required when DATASET_SOURCE=postgres"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("DATASET_SOURCE must be %q or %q, got %q", SourceCSV, SourcePostgres, c.Dataset.Source))
	}

	if c.Analysis.DecompositionPeriod < 2 {
		errs = append(errs, fmt.Errorf("ANALYSIS_DECOMPOSITION_PERIOD must be at least 2, got %d", c.Analysis.DecompositionPeriod))
	}
	if len(c.Analysis.CorrelationFields) == 0 {
		errs = append(errs, errors.New("ANALYSIS_CORRELATION_FIELDS must name at least one field"))
	}
	if !c.Analysis.DefaultPollutant.IsMeasurement() {
		errs = append(errs, fmt.Errorf("ANALYSIS_DEFAULT_POLLUTANT %q is not a measurement field", c.Analysis.DefaultPollutant))
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimit.RequestsPerSecond))
	}
	if c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimit.Burst))
	}

	return errors.Join(errs...)
}

func loadEnvFile() error {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
