package config

import (
	"os"
	"strconv"

	"statlens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Data       DataConfig
	Classifier ClassifierConfig
	Profiler   ProfilerConfig
	Recommend  RecommendConfig
}

// DatabaseConfig holds analysis-history database settings. URL is optional:
// without it the in-memory history store is used.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DataConfig holds data ingestion settings
type DataConfig struct {
	File string
}

// ClassifierConfig holds the semantic-type classification thresholds.
// These are deliberate heuristic constants carried as configuration, not
// re-derived from first principles.
type ClassifierConfig struct {
	// DatetimeThreshold is the fraction of sampled values that must parse
	// as timestamps for a datetime classification.
	DatetimeThreshold float64
	// NumericThreshold is the fraction of non-missing values that must
	// coerce to numbers for a numeric/discrete classification.
	NumericThreshold float64
	// CardinalityRatio bounds distinct/rows for a categorical
	// classification; above it the column is text.
	CardinalityRatio float64
	// MaxCategories is the absolute distinct-value cap for categorical.
	MaxCategories int
	// SampleSize bounds how many values the datetime probe inspects.
	SampleSize int
}

// ProfilerConfig holds profiling constants.
type ProfilerConfig struct {
	// IQRMultiplier is the outlier fence multiplier (Q1-k*IQR, Q3+k*IQR).
	IQRMultiplier float64
	// MaxFrequencyEntries caps the stored categorical frequency table.
	MaxFrequencyEntries int
}

// RecommendConfig holds recommendation rule thresholds.
type RecommendConfig struct {
	// MissingSevereFraction escalates a missing-value card to critical
	// when any single column exceeds it.
	MissingSevereFraction float64
	// OutlierShare flags a column for outlier review above this share of
	// non-missing values.
	OutlierShare float64
	// SmallSampleN triggers the small-sample methodological note below it.
	SmallSampleN int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Data: DataConfig{
			File: getEnvOrDefault("DATA_FILE", ""),
		},
		Classifier: DefaultClassifierConfig(),
		Profiler:   DefaultProfilerConfig(),
		Recommend:  DefaultRecommendConfig(),
	}

	config.Classifier.DatetimeThreshold = getEnvFloatOrDefault("DATETIME_THRESHOLD", config.Classifier.DatetimeThreshold)
	config.Classifier.NumericThreshold = getEnvFloatOrDefault("NUMERIC_THRESHOLD", config.Classifier.NumericThreshold)
	config.Classifier.CardinalityRatio = getEnvFloatOrDefault("CARDINALITY_RATIO", config.Classifier.CardinalityRatio)
	config.Classifier.MaxCategories = getEnvIntOrDefault("MAX_CATEGORIES", config.Classifier.MaxCategories)
	config.Profiler.IQRMultiplier = getEnvFloatOrDefault("IQR_MULTIPLIER", config.Profiler.IQRMultiplier)
	config.Recommend.MissingSevereFraction = getEnvFloatOrDefault("MISSING_SEVERE_FRACTION", config.Recommend.MissingSevereFraction)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// DefaultClassifierConfig returns the documented heuristic defaults.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		DatetimeThreshold: 0.90,
		NumericThreshold:  0.80,
		CardinalityRatio:  0.50,
		MaxCategories:     50,
		SampleSize:        200,
	}
}

// DefaultProfilerConfig returns the documented profiling defaults.
func DefaultProfilerConfig() ProfilerConfig {
	return ProfilerConfig{
		IQRMultiplier:       1.5,
		MaxFrequencyEntries: 50,
	}
}

// DefaultRecommendConfig returns the documented rule thresholds.
func DefaultRecommendConfig() RecommendConfig {
	return RecommendConfig{
		MissingSevereFraction: 0.30,
		OutlierShare:          0.05,
		SmallSampleN:          30,
	}
}

func validateConfig(config *Config) error {
	if config.Classifier.DatetimeThreshold <= 0 || config.Classifier.DatetimeThreshold > 1 {
		return errors.ConfigInvalid("DATETIME_THRESHOLD must be in (0,1]")
	}
	if config.Classifier.NumericThreshold <= 0 || config.Classifier.NumericThreshold > 1 {
		return errors.ConfigInvalid("NUMERIC_THRESHOLD must be in (0,1]")
	}
	if config.Classifier.CardinalityRatio <= 0 || config.Classifier.CardinalityRatio > 1 {
		return errors.ConfigInvalid("CARDINALITY_RATIO must be in (0,1]")
	}
	if config.Profiler.IQRMultiplier <= 0 {
		return errors.ConfigInvalid("IQR_MULTIPLIER must be positive")
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
