// Package config provides application configuration loading from environment variables and .env files.
// It uses viper for flexible configuration management with sensible defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// Config holds all application configuration loaded from environment variables or .env file.
// Configuration priority: environment variables > .env file > defaults.
type Config struct {
	AppEnv              string // Application environment (dev, staging, prod)
	HTTPAddr            string // HTTP server bind address (e.g., ":8080")
	MetricsAddr         string // Metrics server bind address
	StoreType           string // Session backend type (memory or file)
	WorkspacePath       string // Workspace YAML file used by the file store and the CLI
	LogLevel            string // zerolog level (debug, info, warn, error)
	LogFormat           string // json or console
	ScoreScale          string // percent or raw
	ThresholdEditPolicy string // reject or clamp
	QualifyingTier      string // lowest tier that counts as qualified
	RateLimitPerIP      int    // Requests per minute per client IP
}

// Load reads configuration from environment variables and .env file (if present).
// Environment variables take precedence over .env file values.
// Returns a Config struct with all values populated (either from env or defaults).
//
// Validation:
//
//	Load does not check constraints (e.g., file store requires a workspace path).
//	Use Validate() to fail fast at startup.
func Load() (*Config, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	_ = viperInstance.ReadInConfig()    // Ignore error - .env is optional
	viperInstance.AutomaticEnv()        // Read from environment variables

	setConfigDefaults(viperInstance)

	return &Config{
		AppEnv:              viperInstance.GetString("APP_ENV"),
		HTTPAddr:            viperInstance.GetString("APP_HTTP_ADDR"),
		MetricsAddr:         viperInstance.GetString("METRICS_ADDR"),
		StoreType:           viperInstance.GetString("STORE_TYPE"),
		WorkspacePath:       viperInstance.GetString("WORKSPACE_PATH"),
		LogLevel:            viperInstance.GetString("LOG_LEVEL"),
		LogFormat:           viperInstance.GetString("LOG_FORMAT"),
		ScoreScale:          viperInstance.GetString("SCORE_SCALE"),
		ThresholdEditPolicy: viperInstance.GetString("THRESHOLD_EDIT_POLICY"),
		QualifyingTier:      viperInstance.GetString("QUALIFYING_TIER"),
		RateLimitPerIP:      viperInstance.GetInt("RATE_LIMIT_PER_IP"),
	}, nil
}

// setConfigDefaults sets default values for all configuration options.
// These defaults are suitable for local development.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("STORE_TYPE", "file")
	v.SetDefault("WORKSPACE_PATH", "leadgrade.yaml")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SCORE_SCALE", string(threshold.ScalePercent))
	v.SetDefault("THRESHOLD_EDIT_POLICY", string(threshold.PolicyReject))
	v.SetDefault("QUALIFYING_TIER", string(threshold.TierGood))
	v.SetDefault("RATE_LIMIT_PER_IP", 100)
}

// ValidationError represents a configuration validation error with details about what failed.
type ValidationError struct {
	Field   string // Name of the configuration field
	Message string // Human-readable error message
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate checks that the configuration is usable.
//
// Validation Rules:
//  1. StoreType must be one of: "memory", "file"
//  2. If StoreType is "file", WorkspacePath must be non-empty
//  3. HTTPAddr and MetricsAddr must be non-empty
//  4. LogFormat must be "json" or "console"
//  5. ScoreScale, ThresholdEditPolicy and QualifyingTier must parse, and the
//     qualifying tier must exist on the chosen scale
//  6. RateLimitPerIP must be positive
//
// Returns:
//   - nil if configuration is valid
//   - ValidationError describing the first validation failure
func (c *Config) Validate() error {
	if c.StoreType != "memory" && c.StoreType != "file" {
		return ValidationError{
			Field:   "STORE_TYPE",
			Message: fmt.Sprintf("must be 'memory' or 'file', got '%s'", c.StoreType),
		}
	}

	if c.StoreType == "file" && c.WorkspacePath == "" {
		return ValidationError{
			Field:   "WORKSPACE_PATH",
			Message: "workspace path is required when STORE_TYPE=file",
		}
	}

	if c.HTTPAddr == "" {
		return ValidationError{
			Field:   "APP_HTTP_ADDR",
			Message: "HTTP server address cannot be empty",
		}
	}

	if c.MetricsAddr == "" {
		return ValidationError{
			Field:   "METRICS_ADDR",
			Message: "metrics server address cannot be empty",
		}
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return ValidationError{
			Field:   "LOG_FORMAT",
			Message: fmt.Sprintf("must be 'json' or 'console', got '%s'", c.LogFormat),
		}
	}

	scale, err := threshold.ParseScale(c.ScoreScale)
	if err != nil {
		return ValidationError{Field: "SCORE_SCALE", Message: "must be 'percent' or 'raw'"}
	}

	if _, err := threshold.ParseEditPolicy(c.ThresholdEditPolicy); err != nil {
		return ValidationError{Field: "THRESHOLD_EDIT_POLICY", Message: "must be 'reject' or 'clamp'"}
	}

	tier, err := threshold.ParseTier(c.QualifyingTier)
	if err != nil {
		return ValidationError{Field: "QUALIFYING_TIER", Message: err.Error()}
	}
	if tier == threshold.TierPoor && scale == threshold.ScalePercent {
		return ValidationError{
			Field:   "QUALIFYING_TIER",
			Message: "tier 'poor' does not exist on the percent scale",
		}
	}

	if c.RateLimitPerIP <= 0 {
		return ValidationError{
			Field:   "RATE_LIMIT_PER_IP",
			Message: "rate limit must be positive",
		}
	}

	return nil
}

// Scale returns the parsed score scale. Call after Validate.
func (c *Config) Scale() threshold.Scale {
	s, _ := threshold.ParseScale(c.ScoreScale)
	return s
}

// EditPolicy returns the parsed threshold edit policy. Call after Validate.
func (c *Config) EditPolicy() threshold.EditPolicy {
	p, _ := threshold.ParseEditPolicy(c.ThresholdEditPolicy)
	return p
}

// Tier returns the parsed qualifying tier. Call after Validate.
func (c *Config) Tier() threshold.Tier {
	t, _ := threshold.ParseTier(c.QualifyingTier)
	return t
}
