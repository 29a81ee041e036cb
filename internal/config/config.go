package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kjannette/mindful-trader/internal/logging"
)

type Config struct {
	// Secrets (from .env)
	APIKey     string
	WebhookURL string
	AppName    string

	// HTTP
	APIPort         int
	CORSAllowOrigin string
	RateLimitRPS    float64
	RateLimitBurst  int

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBMigrate  bool

	// Analytics
	DefaultTimezone      string
	AvoidMinTrades       int
	AvoidMaxWinRate      float64
	BestWorstMinTrades   int
	SectorVocabularyFile string

	// Risk warnings
	MaxDailyTrades     int
	MaxPositionSizeUSD float64

	// Weekly reports
	WeeklyReportInterval time.Duration
	WeeklyReportUsers    []string

	// Logging / tracing
	LogLevel       string
	LogFile        string
	LogMaxSizeMB   int
	LogMaxBackups  int
	LogMaxAgeDays  int
	TracingEnabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:     envStr("API_KEY", ""),
		WebhookURL: envStr("WEBHOOK_URL", ""),
		AppName:    envStr("APP_NAME", "MindfulTrader"),

		APIPort:         envInt("API_PORT", 3001),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),
		RateLimitRPS:    envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:  envInt("RATE_LIMIT_BURST", 40),

		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "mindful_trader"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),
		DBMigrate:  envBool("DB_MIGRATE", true),

		DefaultTimezone:      envStr("DEFAULT_TIMEZONE", "America/Los_Angeles"),
		AvoidMinTrades:       envInt("AVOID_MIN_TRADES", 10),
		AvoidMaxWinRate:      envFloat("AVOID_MAX_WIN_RATE", 40),
		BestWorstMinTrades:   envInt("BEST_WORST_MIN_TRADES", 5),
		SectorVocabularyFile: envStr("SECTOR_VOCABULARY_FILE", ""),

		MaxDailyTrades:     envInt("MAX_DAILY_TRADES", 10),
		MaxPositionSizeUSD: envFloat("MAX_POSITION_SIZE_USD", 25000),

		WeeklyReportInterval: envDuration("WEEKLY_REPORT_INTERVAL", 7*24*time.Hour),
		WeeklyReportUsers:    envList("WEEKLY_REPORT_USERS"),

		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFile:        envStr("LOG_FILE", ""),
		LogMaxSizeMB:   envInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:  envInt("LOG_MAX_BACKUPS", 7),
		LogMaxAgeDays:  envInt("LOG_MAX_AGE_DAYS", 30),
		TracingEnabled: envBool("TRACING_ENABLED", false),
	}

	return cfg, nil
}

// Validate returns every problem at once. Soft issues are only warned about.
func (c *Config) Validate(log zerolog.Logger) error {
	var errs []string

	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("DEFAULT_TIMEZONE %q is not a known timezone", c.DefaultTimezone))
	}
	if c.AvoidMinTrades <= 0 {
		errs = append(errs, "AVOID_MIN_TRADES must be positive")
	}
	if c.AvoidMaxWinRate <= 0 || c.AvoidMaxWinRate > 100 {
		errs = append(errs, "AVOID_MAX_WIN_RATE must be within (0, 100]")
	}
	if c.BestWorstMinTrades <= 0 {
		errs = append(errs, "BEST_WORST_MIN_TRADES must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.WeeklyReportInterval <= 0 {
		errs = append(errs, "WEEKLY_REPORT_INTERVAL must be positive")
	}
	for _, u := range c.WeeklyReportUsers {
		if _, err := uuid.Parse(u); err != nil {
			errs = append(errs, fmt.Sprintf("WEEKLY_REPORT_USERS: %q is not a UUID", u))
		}
	}

	if c.APIKey == "" {
		log.Warn().Msg("API_KEY not set, REST API has no authentication")
	}
	if c.WebhookURL == "" && len(c.WeeklyReportUsers) > 0 {
		log.Warn().Msg("WEEKLY_REPORT_USERS set without WEBHOOK_URL, reports will only be logged")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Location returns the configured default timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Logging() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.LogLevel,
		Console:    true,
		FilePath:   c.LogFile,
		MaxSize:    c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAgeDays,
	}
}

// LogSummary reports the non-secret settings.
func (c *Config) LogSummary(log zerolog.Logger) {
	log.Info().
		Str("app", c.AppName).
		Int("port", c.APIPort).
		Str("db", fmt.Sprintf("%s:%d/%s", c.DBHost, c.DBPort, c.DBName)).
		Bool("migrate", c.DBMigrate).
		Str("timezone", c.DefaultTimezone).
		Int("avoid_min_trades", c.AvoidMinTrades).
		Float64("avoid_max_win_rate", c.AvoidMaxWinRate).
		Int("best_worst_min_trades", c.BestWorstMinTrades).
		Str("sector_vocabulary", boolLabel(c.SectorVocabularyFile != "", c.SectorVocabularyFile, "built-in")).
		Str("webhook", boolLabel(c.WebhookURL != "", "configured", "not set")).
		Dur("weekly_report_interval", c.WeeklyReportInterval).
		Int("weekly_report_users", len(c.WeeklyReportUsers)).
		Bool("tracing", c.TracingEnabled).
		Msg("configuration loaded")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
