package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"abverdict/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Server   ServerConfig
	Cache     CacheConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// AnalysisConfig holds the defaults applied to analysis requests that leave a parameter unset
type AnalysisConfig struct {
	Iterations        int
	OutlierPercentile float64
	Workers           int
	Seed              *int64
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	GinMode        string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// ProfilingConfig controls the optional pprof listener of the API server
type ProfilingConfig struct {
	Enabled bool
	Port    string
}

// CacheConfig bounds the memoization table; zero disables it
type CacheConfig struct {
	Entries int
}

const (
	DefaultIterations        = 1000
	DefaultOutlierPercentile = 99.0
	MaxIterations            = 1_000_000
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	analysisConfig, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}

	config := &Config{
		Analysis: *analysisConfig,
		Server:   *loadServerConfig(),
		Cache:    CacheConfig{Entries: getEnvIntOrDefault("ABV_CACHE_SIZE", 128)},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}
	config.Profiling = ProfilingConfig{
		Enabled: os.Getenv("ABV_PPROF") == "true",
		Port:    getEnvOrDefault("ABV_PPROF_PORT", "6060"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is present
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Iterations:        DefaultIterations,
			OutlierPercentile: DefaultOutlierPercentile,
			Workers:           runtime.GOMAXPROCS(0),
		},
		Server: ServerConfig{
			Port:           "8080",
			GinMode:        "release",
			MaxUploadBytes: 32 << 20,
			RequestTimeout: 2 * time.Minute,
		},
		Cache:     CacheConfig{Entries: 128},
		Profiling: ProfilingConfig{Port: "6060"},
		LogLevel:  "INFO",
	}
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	cfg := &AnalysisConfig{
		Iterations:        getEnvIntOrDefault("ABV_ITERATIONS", DefaultIterations),
		OutlierPercentile: getEnvFloatOrDefault("ABV_OUTLIER_PERCENTILE", DefaultOutlierPercentile),
		Workers:           getEnvIntOrDefault("ABV_WORKERS", runtime.GOMAXPROCS(0)),
	}

	if value := os.Getenv("ABV_SEED"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("ABV_SEED must be an integer")
		}
		cfg.Seed = &seed
	}

	return cfg, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		MaxUploadBytes: int64(getEnvIntOrDefault("ABV_MAX_UPLOAD_MB", 32)) << 20,
		RequestTimeout: getEnvDurationOrDefault("ABV_REQUEST_TIMEOUT", 2*time.Minute),
	}
}

func validateConfig(config *Config) error {
	if config.Analysis.Iterations <= 0 || config.Analysis.Iterations > MaxIterations {
		return errors.ConfigInvalid("ABV_ITERATIONS must be between 1 and 1000000")
	}
	if config.Analysis.OutlierPercentile <= 0 || config.Analysis.OutlierPercentile > 100 {
		return errors.ConfigInvalid("ABV_OUTLIER_PERCENTILE must be in (0, 100]")
	}
	if config.Analysis.Workers <= 0 {
		return errors.ConfigInvalid("ABV_WORKERS must be positive")
	}
	if config.Cache.Entries < 0 {
		return errors.ConfigInvalid("ABV_CACHE_SIZE must not be negative")
	}
	if config.Server.MaxUploadBytes <= 0 {
		return errors.ConfigInvalid("ABV_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
