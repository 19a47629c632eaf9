package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"payflow/internal/core"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	RateLimit          string

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report cache; an empty Redis URL keeps it in process
	RedisURL       string
	ReportCacheTTL time.Duration

	// Google Sheets
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	Wage core.WageConfig
}

// loader reads typed values from koanf and records every value it could
// not parse so Load can report them together.
type loader struct {
	k        *koanf.Koanf
	problems []string
}

func (l *loader) str(key, def string) string {
	if v := strings.TrimSpace(l.k.String(key)); v != "" {
		return v
	}
	return def
}

func (l *loader) int(key string, def int) int {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.problems = append(l.problems, fmt.Sprintf("%s: %q is not an integer", key, raw))
		return def
	}
	return v
}

func (l *loader) float(key string, def float64) float64 {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		l.problems = append(l.problems, fmt.Sprintf("%s: %q is not a number", key, raw))
		return def
	}
	return v
}

func (l *loader) bool(key string, def bool) bool {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.problems = append(l.problems, fmt.Sprintf("%s: %q is not a boolean", key, raw))
		return def
	}
	return v
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.problems = append(l.problems, fmt.Sprintf("%s: %q is not a duration", key, raw))
		return def
	}
	return v
}

func (l *loader) clock(key string, def core.Clock) core.Clock {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := core.ParseClock(raw)
	if err != nil {
		l.problems = append(l.problems, fmt.Sprintf("%s: %q is not a HH:MM time", key, raw))
		return def
	}
	return v
}

func (l *loader) list(key string) []string {
	raw := l.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads configuration from the environment, after applying an optional
// .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	l := &loader{k: k}
	wage := core.DefaultWageConfig()
	cfg := &Config{
		Port:               l.str("PORT", "8081"),
		CORSAllowedOrigins: l.list("CORS_ALLOWED_ORIGINS"),
		RateLimit:          l.str("RATE_LIMIT", "120-M"),

		SQLiteDBPath: l.str("SQLITE_DB_PATH", "./data/payflow.db"),

		AMQPURL:      l.str("AMQP_URL", ""),
		AMQPExchange: l.str("AMQP_EXCHANGE", "payflow"),
		AMQPQueue:    l.str("AMQP_QUEUE", "sync_shifts"),

		RedisURL:       l.str("REDIS_URL", ""),
		ReportCacheTTL: l.duration("REPORT_CACHE_TTL", 5*time.Minute),

		GoogleSpreadsheetID:   l.str("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       l.str("GOOGLE_SHEET_NAME", "Shifts"),
		GoogleCredentialsFile: l.str("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: l.str("GOOGLE_CREDENTIALS_JSON", ""),

		SyncBatchSize: l.int("SYNC_BATCH_SIZE", 10),
		SyncInterval:  l.duration("SYNC_INTERVAL", 30*time.Second),

		LogLevel:  l.str("LOG_LEVEL", "info"),
		LogFormat: l.str("LOG_FORMAT", "text"),

		Wage: core.WageConfig{
			EnableNightShift:   l.bool("NIGHT_SHIFT_ENABLED", wage.EnableNightShift),
			NightStart:         l.clock("NIGHT_START", wage.NightStart),
			NightEnd:           l.clock("NIGHT_END", wage.NightEnd),
			EnableOvertime:     l.bool("OVERTIME_ENABLED", wage.EnableOvertime),
			OvertimeThreshold:  l.float("OVERTIME_THRESHOLD", wage.OvertimeThreshold),
			OvertimeRate:       l.float("OVERTIME_RATE", wage.OvertimeRate),
			MealAllowance:      l.float("MEAL_ALLOWANCE", wage.MealAllowance),
			TransportAllowance: l.float("TRANSPORT_ALLOWANCE", wage.TransportAllowance),
			WeekendBonus:       l.float("WEEKEND_BONUS", wage.WeekendBonus),
		},
	}

	if len(l.problems) > 0 {
		return nil, fmt.Errorf("configuration parsing failed:\n- %s", strings.Join(l.problems, "\n- "))
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
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

	if c.RedisURL != "" {
		if parsedURL, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	}
	if c.ReportCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be positive", c.ReportCacheTTL))
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if !strings.Contains(c.RateLimit, "-") {
		errors = append(errors, fmt.Sprintf("invalid rate limit '%s': expected <limit>-<period>, e.g. 120-M", c.RateLimit))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if err := c.Wage.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
