package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"airquality-platform/internal/models"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ANALYSIS_DECOMPOSITION_PERIOD", "")
	t.Setenv("ANALYSIS_CORRELATION_FIELDS", "")
	t.Setenv("DATASET_SOURCE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Dataset.Source != SourceCSV {
		t.Errorf("Dataset.Source = %q, want csv", cfg.Dataset.Source)
	}
	if cfg.Analysis.DecompositionPeriod != 24 {
		t.Errorf("DecompositionPeriod = %d, want 24", cfg.Analysis.DecompositionPeriod)
	}
	if len(cfg.Analysis.CorrelationFields) != 10 || cfg.Analysis.CorrelationFields[0] != models.FieldPM25 {
		t.Errorf("CorrelationFields = %v", cfg.Analysis.CorrelationFields)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("ANALYSIS_DECOMPOSITION_PERIOD", "12")
	t.Setenv("ANALYSIS_CORRELATION_FIELDS", "pm2.5, no2 ,temp")
	t.Setenv("ANALYSIS_DEFAULT_POLLUTANT", "o3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("DATASET_SOURCE", "Postgres")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Analysis.DecompositionPeriod != 12 {
		t.Errorf("DecompositionPeriod = %d, want 12", cfg.Analysis.DecompositionPeriod)
	}
	want := []models.Field{models.FieldPM25, models.FieldNO2, models.FieldTEMP}
	if len(cfg.Analysis.CorrelationFields) != len(want) {
		t.Fatalf("CorrelationFields = %v, want %v", cfg.Analysis.CorrelationFields, want)
	}
	for i := range want {
		if cfg.Analysis.CorrelationFields[i] != want[i] {
			t.Errorf("CorrelationFields[%d] = %q, want %q", i, cfg.Analysis.CorrelationFields[i], want[i])
		}
	}
	if cfg.Analysis.DefaultPollutant != models.FieldO3 {
		t.Errorf("DefaultPollutant = %q, want O3", cfg.Analysis.DefaultPollutant)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.Dataset.Source != SourcePostgres {
		t.Errorf("Dataset.Source = %q, want postgres", cfg.Dataset.Source)
	}
}

func TestLoadConfig_UnknownCorrelationField(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("ANALYSIS_CORRELATION_FIELDS", "PM2.5,ozone")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should reject an unknown correlation field")
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	const key = "DATASET_STATION"
	if prev, ok := os.LookupEnv(key); ok {
		t.Cleanup(func() { os.Setenv(key, prev) })
	} else {
		t.Cleanup(func() { os.Unsetenv(key) })
	}
	os.Unsetenv(key)

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(key+"=Dongsi\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Dataset.Station != "Dongsi" {
		t.Errorf("Dataset.Station = %q, want Dongsi", cfg.Dataset.Station)
	}
}

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail when ENV_FILE does not exist")
	}
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Port: 5432},
		Dataset:  DatasetConfig{Source: SourceCSV, Path: "data.csv", Station: "S"},
		Analysis: AnalysisConfig{
			DecompositionPeriod: 24,
			CorrelationFields:   []models.Field{models.FieldPM25},
			DefaultPollutant:    models.FieldPM25,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "period below two",
			mutate:  func(c *Config) { c.Analysis.DecompositionPeriod = 1 },
			wantErr: "ANALYSIS_DECOMPOSITION_PERIOD",
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Dataset.Source = "s3" },
			wantErr: "DATASET_SOURCE",
		},
		{
			name:    "csv without path",
			mutate:  func(c *Config) { c.Dataset.Path = "" },
			wantErr: "DATASET_PATH",
		},
		{
			name: "postgres without station",
			mutate: func(c *Config) {
				c.Dataset.Source = SourcePostgres
				c.Dataset.Station = ""
			},
			wantErr: "DATASET_STATION",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "SERVER_PORT",
		},
		{
			name:    "time field as pollutant",
			mutate:  func(c *Config) { c.Analysis.DefaultPollutant = models.FieldHour },
			wantErr: "ANALYSIS_DEFAULT_POLLUTANT",
		},
		{
			name:    "zero burst",
			mutate:  func(c *Config) { c.RateLimit.Burst = 0 },
			wantErr: "RATE_LIMIT_BURST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_Postgres(t *testing.T) {
	d := DatabaseConfig{
		Host:            "db",
		Port:            5433,
		User:            "analyst",
		Password:        "secret",
		Database:        "airquality",
		SSLMode:         "require",
		MaxOpenConns:    4,
		ConnMaxLifetime: time.Minute,
	}

	pg := d.Postgres()
	if pg.Host != "db" || pg.Port != 5433 || pg.MaxOpenConns != 4 || pg.ConnMaxLifetime != time.Minute {
		t.Errorf("Postgres() = %+v", pg)
	}
	if dsn := pg.DSN(); !strings.Contains(dsn, "dbname=airquality") || !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("DSN() = %q", dsn)
	}
}
