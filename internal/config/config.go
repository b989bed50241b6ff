package config

import (
	"os"
	"strconv"

	"groupstat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	Paths    PathConfig
}

// DatabaseConfig holds database connection settings. URL empty means no
// persistence; the API falls back to its in-memory store.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// AnalysisConfig holds engine defaults applied when a request omits them
type AnalysisConfig struct {
	DefaultAlpha      float64
	DefaultAdjustment string
	DefaultMissing    string
	Seed              int64
}

// PathConfig holds file system paths
type PathConfig struct {
	DataFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Analysis: AnalysisConfig{
			DefaultAlpha:      0.05,
			DefaultAdjustment: "holm",
			DefaultMissing:    "drop",
			Seed:              1,
		},
		Paths: PathConfig{
			DataFile: os.Getenv("DATA_FILE"),
		},
	}

	if v := os.Getenv("DEFAULT_ALPHA"); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("DEFAULT_ALPHA must be a float")
		}
		cfg.Analysis.DefaultAlpha = alpha
	}
	if v := os.Getenv("DEFAULT_ADJUSTMENT"); v != "" {
		cfg.Analysis.DefaultAdjustment = v
	}
	if v := os.Getenv("DEFAULT_MISSING"); v != "" {
		cfg.Analysis.DefaultMissing = v
	}
	if v := os.Getenv("ANALYSIS_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("ANALYSIS_SEED must be an integer")
		}
		cfg.Analysis.Seed = seed
	}

	if cfg.Analysis.DefaultAlpha <= 0 || cfg.Analysis.DefaultAlpha >= 1 {
		return nil, errors.ConfigInvalid("DEFAULT_ALPHA must be in (0,1)")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
