package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kjannette/mindful-trader/internal/models"
)

func TestBuildFilteredQuery(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sid := uuid.New()
	q, args := buildFilteredQuery("SELECT 1 WHERE t.user_id = $1", []any{"u"}, models.TradeFilter{
		Ticker:     "aapl",
		StrategyID: &sid,
		StartDate:  &start,
		ClosedOnly: true,
		Limit:      50,
		Offset:     100,
	})

	want := "SELECT 1 WHERE t.user_id = $1 AND t.ticker = $2 AND p.strategy_id = $3 AND t.entry_date >= $4" +
		" AND t.net_pnl IS NOT NULL ORDER BY t.entry_date DESC LIMIT $5 OFFSET $6"
	if q != want {
		t.Fatalf("unexpected query:\n  %s\nexpected:\n  %s", q, want)
	}
	if len(args) != 6 || args[1] != "AAPL" || args[4] != 50 || args[5] != 100 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildFilteredQuery_NoFilter(t *testing.T) {
	q, args := buildFilteredQuery("SELECT 1 WHERE t.user_id = $1", []any{"u"}, models.TradeFilter{})
	if !strings.HasSuffix(q, "ORDER BY t.entry_date DESC") || len(args) != 1 {
		t.Fatalf("unexpected query %q args %v", q, args)
	}
}

func TestDayBounds(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 02:30 UTC on the 10th is still the 9th in New York.
	ts := time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC)
	start, end := DayBounds(ts, loc)
	if start.Day() != 9 || start.Hour() != 0 {
		t.Fatalf("expected midnight on the 9th, got %v", start)
	}
	if !end.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected end %v", end)
	}
	if got := TradingDay(ts, loc); got != "2024-03-09" {
		t.Fatalf("expected 2024-03-09, got %s", got)
	}

	// The DST switch day is 23 hours long.
	s2, e2 := DayBounds(end, loc)
	if e2.Sub(s2) != 23*time.Hour {
		t.Fatalf("expected 23h day, got %v", e2.Sub(s2))
	}
}

func TestTradeRowWithoutJournals(t *testing.T) {
	var r tradeRow
	r.direction = "short"
	tr := r.trade()
	if tr.Direction != models.Short || tr.Pre != nil || tr.Post != nil {
		t.Fatalf("unexpected trade %+v", tr)
	}
}
