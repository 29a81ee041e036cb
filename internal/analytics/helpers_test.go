package analytics

import (
	"time"

	"github.com/kjannette/mindful-trader/internal/models"
)

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// closedTrade builds a closed trade exiting on exit with the given net P&L.
func closedTrade(pnl float64, exit string) models.Trade {
	e := day(exit)
	return models.Trade{
		Ticker:    "AAPL",
		Direction: models.Long,
		EntryDate: e.Add(-time.Hour),
		ExitDate:  &e,
		NetPnL:    ptr(pnl),
	}
}

func slotTrade(pnl float64, dow, hour int) models.Trade {
	t := closedTrade(pnl, "2024-01-01")
	t.DayOfWeek = ptr(dow)
	t.HourOfDay = ptr(hour)
	return t
}

type journalOpts struct {
	emotions     []string
	score        *int
	setup        *int
	followedPlan *bool
	trend        *models.SPYTrend
	sector       *string
}

func journaledTrade(pnl float64, o journalOpts) models.Trade {
	t := closedTrade(pnl, "2024-01-01")
	t.Pre = &models.PreTradeJournal{
		EmotionalState: o.emotions,
		EmotionalScore: o.score,
		SetupQuality:   o.setup,
		SPYTrend:       o.trend,
		SectorContext:  o.sector,
	}
	t.Post = &models.PostTradeJournal{FollowedPlan: o.followedPlan}
	return t
}
