// Package config loads service configuration from defaults, an optional YAML
// file and FINSIGHT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/insights"
)

// Config is the root configuration shared by every command.
type Config struct {
	Server   ServerConfig    `koanf:"server"`
	Log      LogConfig       `koanf:"log"`
	BigQuery BigQueryConfig  `koanf:"bigquery"`
	Postgres PostgresConfig  `koanf:"postgres"`
	Storage  StorageConfig   `koanf:"storage"`
	Receipts ReceiptsConfig  `koanf:"receipts"`
	Jobs     JobsConfig      `koanf:"jobs"`
	Insights insights.Config `koanf:"insights"`
	Currency CurrencyConfig  `koanf:"currency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // console or json
}

// BigQueryConfig locates the accounts and transactions tables.
// An empty project selects the in-memory store.
type BigQueryConfig struct {
	Project string `koanf:"project"`
	Dataset string `koanf:"dataset"`
}

// PostgresConfig locates the goals database. An empty URL selects the in-memory store.
type PostgresConfig struct {
	URL string `koanf:"url"`
}

// StorageConfig names the GCS bucket holding receipt images.
type StorageConfig struct {
	Bucket string `koanf:"bucket"`
}

// ReceiptsConfig configures receipt scanning through Gemini on Vertex AI.
type ReceiptsConfig struct {
	Model    string `koanf:"model"`
	Location string `koanf:"location"`
	MaxBytes int64  `koanf:"max_bytes"`
}

// JobsConfig configures the in-memory job queue.
type JobsConfig struct {
	Buffer     int `koanf:"buffer"`
	Workers    int `koanf:"workers"`
	MaxRetries int `koanf:"max_retries"`
}

// CurrencyConfig holds the fallback currency for users without accounts.
type CurrencyConfig struct {
	Default string `koanf:"default"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		BigQuery: BigQueryConfig{
			Dataset: "finance",
		},
		Receipts: ReceiptsConfig{
			Model:    "gemini-2.5-flash",
			Location: "europe-west2",
			MaxBytes: 10 << 20,
		},
		Jobs: JobsConfig{
			Buffer:     100,
			Workers:    5,
			MaxRetries: 3,
		},
		Insights: insights.DefaultConfig(),
		Currency: CurrencyConfig{
			Default: "USD",
		},
	}
}

// Validate checks values that would make the service misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.Jobs.Workers <= 0 {
		errs = append(errs, errors.New("jobs.workers must be positive"))
	}
	if c.Jobs.Buffer < 0 || c.Jobs.MaxRetries < 0 {
		errs = append(errs, errors.New("jobs.buffer and jobs.max_retries must not be negative"))
	}
	if c.Currency.Default == "" {
		errs = append(errs, errors.New("currency.default is required"))
	}

	in := c.Insights
	if in.OverallTrendThreshold < 0 || in.CategoryTrendThreshold < 0 {
		errs = append(errs, errors.New("insights trend thresholds must not be negative"))
	}
	if in.OverallHighThreshold < in.OverallTrendThreshold || in.CategoryHighThreshold < in.CategoryTrendThreshold {
		errs = append(errs, errors.New("insights high thresholds must not be below trend thresholds"))
	}
	if in.UnusualMultiplier <= 0 {
		errs = append(errs, errors.New("insights.unusual_multiplier must be positive"))
	}
	if in.MaxAnomalies < 0 || in.MaxRecommendations < 0 {
		errs = append(errs, errors.New("insights caps must not be negative"))
	}
	if in.RecurringMinOccurrences < 2 {
		errs = append(errs, errors.New("insights.recurring_min_occurrences must be at least 2"))
	}
	if in.RecurringMinIntervalDays > in.RecurringMaxIntervalDays {
		errs = append(errs, errors.New("insights recurring interval window is inverted"))
	}
	if in.ForecastMonths < 0 || in.SeriesMonths < 0 {
		errs = append(errs, errors.New("insights horizons must not be negative"))
	}
	return errors.Join(errs...)
}
