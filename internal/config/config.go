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

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowOrigin    string
	RateLimitPerMinute int
	TrustedProxies     []string

	// Storage
	DataBackend    string
	SQLiteDBPath   string
	DatabaseURL    string
	MemorySeedFile string

	// Notifications. An empty AMQP URL keeps the bus in-process.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	NotifyTopic  string
	NotifyBuffer int

	SummaryCacheTTL time.Duration

	LogLevel string

	// Spreadsheet mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	SyncInterval             time.Duration

	// Client
	APIURL string
}

var (
	validBackends  = []string{"sqlite", "postgres", "mysql", "memory"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	databaseURL := getEnv("DATABASE_URL", "")

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		CORSAllowOrigin:    getEnv("CORS_ALLOW_ORIGIN", "*"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		DataBackend:    getEnv("DATA_BACKEND", backendFromURL(databaseURL)),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/tracker.db"),
		DatabaseURL:    databaseURL,
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tracker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "tracker_sheets_snapshot"),
		NotifyTopic:  getEnv("NOTIFY_TOPIC", "tracker_updates"),
		NotifyBuffer: getEnvInt("NOTIFY_BUFFER", 16),

		SummaryCacheTTL: getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Second),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Entries"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		SyncInterval:             getEnvDuration("SYNC_INTERVAL", 5*time.Minute),

		APIURL: getEnv("TRACKER_API_URL", "http://localhost:3000"),
	}

	return cfg
}

// backendFromURL picks a default backend from DATABASE_URL's scheme.
func backendFromURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(raw, "mysql://"):
		return "mysql"
	}
	return "sqlite"
}

// Validate checks the settings the API server needs.
func (c *Config) Validate() error {
	return joinProblems(c.serverProblems())
}

// ValidateWorker checks the settings the spreadsheet mirror worker needs.
func (c *Config) ValidateWorker() error {
	problems := c.serverProblems()

	if c.AMQPURL != "" && c.AMQPQueue == "" {
		problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "GOOGLE_SPREADSHEET_ID is required for the spreadsheet worker")
	}
	if c.GoogleSheetName == "" {
		problems = append(problems, "GOOGLE_SHEET_NAME cannot be empty")
	}
	hasFile := c.GoogleServiceAccountFile != ""
	hasJSON := c.GoogleServiceAccountJSON != ""
	if !hasFile && !hasJSON {
		problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided")
	}
	if hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.SyncInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	return joinProblems(problems)
}

func (c *Config) serverProblems() []string {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !contains(validBackends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres", "mysql":
		if c.DatabaseURL == "" {
			problems = append(problems, fmt.Sprintf("DATABASE_URL is required when using %s backend", c.DataBackend))
		} else if got := backendFromURL(c.DatabaseURL); got != c.DataBackend {
			problems = append(problems, fmt.Sprintf("DATABASE_URL scheme does not match %s backend", c.DataBackend))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.NotifyTopic == "" {
		problems = append(problems, "notify topic cannot be empty")
	}
	if c.NotifyBuffer < 1 {
		problems = append(problems, fmt.Sprintf("invalid notify buffer %d: must be at least 1", c.NotifyBuffer))
	}
	if c.SummaryCacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}
	if c.RateLimitPerMinute < 0 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}
	if !contains(validLogLevels, c.LogLevel) {
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	return problems
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
