package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/api"
	"github.com/kjannette/mindful-trader/internal/config"
	"github.com/kjannette/mindful-trader/internal/db"
	"github.com/kjannette/mindful-trader/internal/logging"
	"github.com/kjannette/mindful-trader/internal/notifications"
	"github.com/kjannette/mindful-trader/internal/repository"
	"github.com/kjannette/mindful-trader/internal/risk"
	"github.com/kjannette/mindful-trader/internal/scheduler"
	"github.com/kjannette/mindful-trader/internal/trace"
)

const banner = `
╔══════════════════════════════════════╗
║        Mindful Trader API v0.3       ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging())

	if err := cfg.Validate(log); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.LogSummary(log)

	if err := trace.Init(cfg.TracingEnabled, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("tracing init failed")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trace.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("tracing shutdown failed")
		}
	}()

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	log.Info().Str("host", cfg.DBHost).Int("port", cfg.DBPort).Str("db", cfg.DBName).Msg("connecting to database")
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		pool.Close()
		log.Info().Msg("connection pool closed")
	}()

	if err := db.TestConnection(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("database test query failed")
	}
	if cfg.DBMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("schema migration failed")
		}
		log.Info().Msg("schema up to date")
	}

	// Repos
	loc := cfg.Location()
	tradeRepo := repository.NewTradeRepo(pool, loc)
	strategyRepo := repository.NewStrategyRepo(pool)
	gameRepo := repository.NewGamificationRepo(pool)

	vocab, err := analytics.LoadSectorVocabulary(cfg.SectorVocabularyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("sector vocabulary")
	}

	// 1. API server
	srv := api.NewServer(api.Stores{
		Trades:       tradeRepo,
		Strategies:   strategyRepo,
		Gamification: gameRepo,
		DB:           pool,
	}, api.Options{
		Port:               cfg.APIPort,
		APIKey:             cfg.APIKey,
		CORSOrigin:         cfg.CORSAllowOrigin,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		Location:           loc,
		AvoidMinTrades:     cfg.AvoidMinTrades,
		AvoidMaxWinRate:    cfg.AvoidMaxWinRate,
		BestWorstMinTrades: cfg.BestWorstMinTrades,
		Vocabulary:         vocab,
		Limits: risk.Limits{
			MaxDailyTrades:     cfg.MaxDailyTrades,
			MaxPositionSizeUSD: cfg.MaxPositionSizeUSD,
		},
	}, log)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("api server error")
		}
	}()

	// 2. Weekly report scheduler
	var reports *scheduler.ReportScheduler
	if len(cfg.WeeklyReportUsers) > 0 {
		users := make([]uuid.UUID, 0, len(cfg.WeeklyReportUsers))
		for _, u := range cfg.WeeklyReportUsers {
			users = append(users, uuid.MustParse(u)) // checked by Validate
		}
		notify := notifications.NewSender(cfg.WebhookURL, cfg.AppName, log)
		reports = scheduler.NewReportScheduler(tradeRepo, notify, scheduler.ReportSchedulerConfig{
			Interval: cfg.WeeklyReportInterval,
			Users:    users,
		}, log)
		reports.Start()
	} else {
		log.Info().Msg("weekly reports skipped, no WEEKLY_REPORT_USERS configured")
	}

	log.Info().Msg("all services started")

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully")

	if reports != nil {
		reports.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api shutdown error")
	}
	log.Info().Msg("shutdown complete")
}
