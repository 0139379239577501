package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	DBDriver     string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP
	AMQPURL              string
	AMQPExchange         string
	AMQPQueue            string
	AMQPEventsRoutingKey string

	// Depreciation worker
	DepreciationInterval   time.Duration
	DepreciationWorkers    int
	DepreciationPostLedger bool

	// Ledger
	EntryNumberPrefix string
	ChartFile         string

	// Reports
	ReportCacheTTL  time.Duration
	ReportCacheSize int

	// Google Sheets report export
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Logging
	LogLevel  string
	LogFormat string

	// Rate limiting of mutating API requests
	RateLimitPerMinute int
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/buchhaltung.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AMQPURL:              getEnv("AMQP_URL", ""),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "accounting"),
		AMQPQueue:            getEnv("AMQP_QUEUE", "accounting_events"),
		AMQPEventsRoutingKey: getEnv("AMQP_EVENTS_ROUTING_KEY", ""),

		DepreciationInterval:   getEnvDuration("DEPRECIATION_INTERVAL", 24*time.Hour),
		DepreciationWorkers:    getEnvInt("DEPRECIATION_WORKERS", 4),
		DepreciationPostLedger: getEnvBool("DEPRECIATION_POST_LEDGER", true),

		EntryNumberPrefix: getEnv("ENTRY_NUMBER_PREFIX", "BU"),
		ChartFile:         getEnv("CHART_FILE", ""),

		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", time.Minute),
		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 64),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// BindingKeys returns the comma separated AMQP_EVENTS_ROUTING_KEY list, or
// defaults when it is unset.
func (c *Config) BindingKeys(defaults []string) []string {
	var keys []string
	for _, k := range strings.Split(c.AMQPEventsRoutingKey, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return defaults
	}
	return keys
}

// SheetsEnabled reports whether report export to Google Sheets is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate collects every configuration problem into one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using the sqlite driver")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using the postgres driver")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// URL")
		}
	case DriverMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [%s %s %s]", c.DBDriver, DriverSQLite, DriverPostgres, DriverMemory))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DepreciationInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid depreciation interval %v: must be at least 1 minute", c.DepreciationInterval))
	} else if c.DepreciationInterval > 31*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid depreciation interval %v: must be at most 31 days", c.DepreciationInterval))
	}
	if c.DepreciationWorkers < 1 || c.DepreciationWorkers > 64 {
		errors = append(errors, fmt.Sprintf("invalid depreciation workers %d: must be between 1 and 64", c.DepreciationWorkers))
	}

	if p := strings.TrimSpace(c.EntryNumberPrefix); p == "" || len(p) > 8 {
		errors = append(errors, fmt.Sprintf("invalid entry number prefix '%s': must have 1 to 8 characters", c.EntryNumberPrefix))
	}
	if c.ChartFile != "" {
		if _, err := os.Stat(c.ChartFile); err != nil {
			errors = append(errors, fmt.Sprintf("chart file does not exist: %s", c.ChartFile))
		}
	}

	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}
	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}

	if c.SheetsEnabled() {
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheet export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
