package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/models"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeLister struct {
	trades map[uuid.UUID][]models.Trade
	fail   map[uuid.UUID]bool
	calls  atomic.Int32
}

func (f *fakeLister) ListClosed(_ context.Context, userID uuid.UUID, start, end *time.Time) ([]models.Trade, error) {
	f.calls.Add(1)
	if f.fail[userID] {
		return nil, fmt.Errorf("db down")
	}
	if !start.Equal(now.AddDate(0, 0, -14)) || !end.Equal(now) {
		return nil, fmt.Errorf("unexpected window %v - %v", start, end)
	}
	return f.trades[userID], nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Send(_ context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func closed(pnl float64, entry time.Time) models.Trade {
	exit := entry.Add(time.Hour)
	return models.Trade{Ticker: "AAPL", Direction: models.Long, EntryDate: entry, ExitDate: &exit, NetPnL: &pnl}
}

func TestRunNow(t *testing.T) {
	good, bad := uuid.New(), uuid.New()
	entry := time.Date(2024, 3, 8, 15, 0, 0, 0, time.UTC)
	lister := &fakeLister{
		trades: map[uuid.UUID][]models.Trade{good: {closed(50, entry), closed(-20, entry)}},
		fail:   map[uuid.UUID]bool{bad: true},
	}
	notifier := &fakeNotifier{}

	var reported []uuid.UUID
	s := NewReportScheduler(lister, notifier, ReportSchedulerConfig{
		Users:    []uuid.UUID{bad, good},
		Now:      func() time.Time { return now },
		OnReport: func(u uuid.UUID, _ analytics.WeeklyReport) { reported = append(reported, u) },
	}, zerolog.Nop())

	err := s.RunNow(context.Background())
	if err == nil || !strings.Contains(err.Error(), bad.String()) {
		t.Fatalf("expected failure for %s, got %v", bad, err)
	}
	if len(reported) != 1 || reported[0] != good {
		t.Fatalf("the healthy user should still get a report, got %v", reported)
	}
	if len(notifier.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(notifier.msgs))
	}

	msg := notifier.msgs[0]
	t.Logf("Report:\n%s", msg)
	for _, want := range []string{
		"Weekly report 2024-03-03 to 2024-03-10",
		"This week you made 2 trades with a discipline score of 0/100.",
		"Trades: 2 | Win rate: 50.0% | P&L: $30.00 | Discipline: 0/100",
		"- 💰 Profitable week! Your P&L improved by $30.00.",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in report", want)
		}
	}
}

func TestStartStop(t *testing.T) {
	lister := &fakeLister{trades: map[uuid.UUID][]models.Trade{}}
	s := NewReportScheduler(lister, &fakeNotifier{}, ReportSchedulerConfig{
		Interval: 20 * time.Millisecond,
		Users:    []uuid.UUID{uuid.New()},
		Now:      func() time.Time { return now },
	}, zerolog.Nop())

	s.Start()
	s.Start() // second start is a no-op
	if !s.Running() {
		t.Fatal("expected running")
	}

	deadline := time.After(2 * time.Second)
	for lister.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler never ticked")
		case <-time.After(10 * time.Millisecond):
		}
	}

	s.Stop()
	s.Stop()
	if s.Running() {
		t.Fatal("expected stopped")
	}
}

func TestDefaultInterval(t *testing.T) {
	s := NewReportScheduler(&fakeLister{}, &fakeNotifier{}, ReportSchedulerConfig{}, zerolog.Nop())
	if s.cfg.Interval != 7*24*time.Hour {
		t.Fatalf("expected weekly default, got %v", s.cfg.Interval)
	}
}
