package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Import        ImportConfig
	Observability ObservabilityConfig
	Log           LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	ConnectAttempts int
}

// ImportConfig controls the directory sync
type ImportConfig struct {
	Enabled        bool
	Dir            string
	Username       string
	Blocking       bool
	Schedule       string
	FilesPerSecond int
	Workers        int
	Timeout        time.Duration
	Watch          bool          // Also sync when PDFs appear in Dir
	WatchDebounce  time.Duration // Quiet period before a watch-triggered sync
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "invoices"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

			ConnectAttempts: getEnvAsInt("POSTGRES_CONNECT_ATTEMPTS", 5),
		},
		Import: ImportConfig{
			Enabled:        getEnvAsBool("INVOICE_IMPORT_ENABLED", false),
			Dir:            getEnv("INVOICE_IMPORT_DIR", "./invoices"),
			Username:       getEnv("INVOICE_IMPORT_USERNAME", "import"),
			Blocking:       getEnvAsBool("INVOICE_IMPORT_BLOCKING", false),
			Schedule:       getEnv("INVOICE_IMPORT_SCHEDULE", "@every 15m"),
			FilesPerSecond: getEnvAsInt("INVOICE_IMPORT_FILES_PER_SECOND", 5),
			Workers:        getEnvAsInt("INVOICE_IMPORT_WORKERS", 4),
			Timeout:        getEnvAsDuration("INVOICE_IMPORT_TIMEOUT", 10*time.Minute),
			Watch:          getEnvAsBool("INVOICE_IMPORT_WATCH", false),
			WatchDebounce:  getEnvAsDuration("INVOICE_IMPORT_WATCH_DEBOUNCE", 2*time.Second),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	var errs []error
	if c.Import.Enabled {
		if strings.TrimSpace(c.Import.Dir) == "" {
			errs = append(errs, errors.New("INVOICE_IMPORT_DIR is required when import is enabled"))
		}
		if c.Import.Schedule == "" {
			errs = append(errs, errors.New("INVOICE_IMPORT_SCHEDULE is required when import is enabled"))
		}
	}
	if c.Import.FilesPerSecond <= 0 {
		errs = append(errs, errors.New("INVOICE_IMPORT_FILES_PER_SECOND must be positive"))
	}
	if c.Import.Workers <= 0 {
		errs = append(errs, errors.New("INVOICE_IMPORT_WORKERS must be positive"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// SlogLevel maps the configured level name to a slog.Level
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
