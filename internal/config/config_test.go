package config

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("API_PORT", "8080")
	t.Setenv("AVOID_MAX_WIN_RATE", "35.5")
	t.Setenv("DB_MIGRATE", "no")
	t.Setenv("WEEKLY_REPORT_INTERVAL", "24h")
	t.Setenv("WEEKLY_REPORT_USERS", " 6f1c2a9e-3b7d-4c55-9a10-2f6a8d1e4b7c , ,")
	t.Setenv("AVOID_MIN_TRADES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIPort != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.APIPort)
	}
	if cfg.AvoidMaxWinRate != 35.5 {
		t.Fatalf("expected 35.5, got %v", cfg.AvoidMaxWinRate)
	}
	if cfg.DBMigrate {
		t.Fatal("DB_MIGRATE=no should disable migrations")
	}
	if cfg.WeeklyReportInterval != 24*time.Hour {
		t.Fatalf("expected 24h, got %v", cfg.WeeklyReportInterval)
	}
	if len(cfg.WeeklyReportUsers) != 1 {
		t.Fatalf("expected 1 report user, got %v", cfg.WeeklyReportUsers)
	}
	if cfg.AvoidMinTrades != 10 {
		t.Fatalf("unparseable value should fall back to 10, got %d", cfg.AvoidMinTrades)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		DefaultTimezone:      "Mars/Olympus_Mons",
		AvoidMinTrades:       0,
		AvoidMaxWinRate:      120,
		BestWorstMinTrades:   5,
		RateLimitRPS:         1,
		RateLimitBurst:       1,
		WeeklyReportInterval: time.Hour,
		WeeklyReportUsers:    []string{"bob"},
	}
	err := cfg.Validate(zerolog.Nop())
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DEFAULT_TIMEZONE", "AVOID_MIN_TRADES", "AVOID_MAX_WIN_RATE", `"bob"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
	if cfg.Location() != time.UTC {
		t.Fatal("unknown timezone should fall back to UTC")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: 1, DBName: "d"}
	if got := cfg.DSN(); got != "postgres://u:p@h:1/d?sslmode=disable" {
		t.Fatalf("unexpected dsn %s", got)
	}
}
