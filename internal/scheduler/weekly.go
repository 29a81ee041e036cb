package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/logging"
	"github.com/kjannette/mindful-trader/internal/metrics"
	"github.com/kjannette/mindful-trader/internal/models"
)

// ClosedTradeLister is the slice of the trade store the scheduler reads.
type ClosedTradeLister interface {
	ListClosed(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]models.Trade, error)
}

type Notifier interface {
	Send(ctx context.Context, msg string) error
}

type ReportSchedulerConfig struct {
	Interval time.Duration // e.g. 7*24*time.Hour
	Users    []uuid.UUID
	Now      func() time.Time
	OnReport func(userID uuid.UUID, r analytics.WeeklyReport)
}

// ReportScheduler computes each configured user's weekly report on a fixed
// interval and delivers it through the notifier.
type ReportScheduler struct {
	trades   ClosedTradeLister
	notifier Notifier
	cfg      ReportSchedulerConfig
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewReportScheduler(trades ClosedTradeLister, notifier Notifier, cfg ReportSchedulerConfig, log zerolog.Logger) *ReportScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ReportScheduler{
		trades:   trades,
		notifier: notifier,
		cfg:      cfg,
		log:      logging.WithOperation(log, "weekly-report"),
	}
}

// Start begins the ticker. Nothing is sent at startup so restarts do not
// repeat a report.
func (s *ReportScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn().Msg("scheduler already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
				if err := s.RunNow(ctx); err != nil {
					s.log.Error().Err(err).Msg("weekly report run failed")
				}
				cancel()
			}
		}
	}()

	s.log.Info().Dur("interval", s.cfg.Interval).Int("users", len(s.cfg.Users)).Msg("scheduler started")
}

func (s *ReportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	s.log.Info().Msg("scheduler stopped")
}

func (s *ReportScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow reports for every user outside the normal schedule. One user's
// failure does not stop the others; all failures are returned together.
func (s *ReportScheduler) RunNow(ctx context.Context) error {
	var errs []error
	for _, u := range s.cfg.Users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.reportFor(ctx, u); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u, err))
		}
	}
	return errors.Join(errs...)
}

func (s *ReportScheduler) reportFor(ctx context.Context, userID uuid.UUID) error {
	now := s.cfg.Now()
	start := now.AddDate(0, 0, -14)

	trades, err := s.trades.ListClosed(ctx, userID, &start, &now)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	report := analytics.BuildWeeklyReport(trades, now)
	metrics.RecordComputation("weekly_report", len(trades))

	if s.cfg.OnReport != nil {
		s.cfg.OnReport(userID, report)
	}

	err = s.notifier.Send(ctx, FormatReport(report))
	metrics.RecordWeeklyReport(err == nil)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	userLog := logging.WithUser(s.log, userID.String())
	userLog.Info().
		Int("trades", report.CurrentWeek.Metrics.TotalTrades).
		Int("discipline_score", report.CurrentWeek.Metrics.DisciplineScore).
		Msg("weekly report delivered")
	return nil
}

// FormatReport renders a weekly report as a chat message.
func FormatReport(r analytics.WeeklyReport) string {
	var b strings.Builder
	m := r.CurrentWeek.Metrics
	fmt.Fprintf(&b, "Weekly report %s to %s\n", r.CurrentWeek.Start, r.CurrentWeek.End)
	fmt.Fprintf(&b, "%s\n", r.Summary)
	fmt.Fprintf(&b, "Trades: %d | Win rate: %.1f%% | P&L: $%.2f | Discipline: %d/100\n",
		m.TotalTrades, m.WinRate, m.TotalPnL, m.DisciplineScore)
	for _, insight := range r.Insights {
		fmt.Fprintf(&b, "- %s\n", insight)
	}
	return strings.TrimRight(b.String(), "\n")
}
