package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix is the prefix for environment variable overrides,
// e.g. CREDITRISK_STORAGE_POSTGRES_DSN.
const envPrefix = "CREDITRISK"

// Config represents the complete application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage" envconfig:"STORAGE"`
	Model   ModelConfig   `yaml:"model" envconfig:"MODEL"`
	Feed    FeedConfig    `yaml:"feed" envconfig:"FEED"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// StorageConfig contains database connection settings.
// Empty DSNs select the in-memory backends.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `yaml:"clickhouse_dsn" envconfig:"CLICKHOUSE_DSN"`
}

// ModelConfig contains solver and extractor settings.
type ModelConfig struct {
	Tolerance     float64 `yaml:"tolerance" envconfig:"TOLERANCE"`
	MaxIterations int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS"`
	RecoveryRate  float64 `yaml:"recovery_rate" envconfig:"RECOVERY_RATE"`
	HorizonDays   []int   `yaml:"horizon_days" envconfig:"HORIZON_DAYS"`
}

// FeedConfig contains live quote feed settings.
type FeedConfig struct {
	URL          string        `yaml:"url" envconfig:"URL"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// Load builds configuration in three layers: defaults, then the YAML file
// at path (skipped when path is empty or the file doesn't exist), then
// CREDITRISK_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env-only
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks the configuration for invalid values.
func (c *Config) validate() error {
	if c.Model.Tolerance <= 0 {
		return fmt.Errorf("model tolerance must be positive, got %g", c.Model.Tolerance)
	}
	if c.Model.MaxIterations <= 0 {
		return fmt.Errorf("model max iterations must be positive, got %d", c.Model.MaxIterations)
	}
	if c.Model.RecoveryRate < 0 || c.Model.RecoveryRate >= 1 {
		return fmt.Errorf("recovery rate must be in [0,1), got %g", c.Model.RecoveryRate)
	}
	if len(c.Model.HorizonDays) == 0 {
		return fmt.Errorf("at least one horizon must be configured")
	}
	for _, h := range c.Model.HorizonDays {
		if h <= 0 {
			return fmt.Errorf("horizons must be positive, got %d", h)
		}
	}
	if c.Feed.ReadTimeout <= 0 {
		return fmt.Errorf("feed read timeout must be positive")
	}
	if c.Feed.WriteTimeout <= 0 {
		return fmt.Errorf("feed write timeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Tolerance:     1e-9,
			MaxIterations: 200,
			RecoveryRate:  0.5,
			HorizonDays:   []int{182, 365, 730, 1095, 1825},
		},
		Feed: FeedConfig{
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
