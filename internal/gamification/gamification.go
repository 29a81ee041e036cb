// Package gamification tracks journaling streaks, levels and badges.
package gamification

import (
	"slices"
	"time"

	"github.com/kjannette/mindful-trader/internal/models"
)

const (
	tradesPerLevel = 10
	defaultIcon    = "🏅"
)

type badgeDef struct {
	id          string
	name        string
	description string
	icon        string
	// Exactly one threshold applies.
	trades int
	streak int
}

var badges = []badgeDef{
	{id: "10_trades", name: "10 Trades", description: "Logged 10 trades", icon: "🎯", trades: 10},
	{id: "50_trades", name: "50 Trades", description: "Logged 50 trades", icon: "🏆", trades: 50},
	{id: "100_trades", name: "100 Trades", description: "Logged 100 trades", icon: "💎", trades: 100},
	{id: "500_trades", name: "500 Trades", description: "Logged 500 trades", icon: "👑", trades: 500},
	{id: "7_day_streak", name: "7 Day Streak", description: "Maintained a 7-day journaling streak", icon: "🔥", streak: 7},
	{id: "30_day_streak", name: "30 Day Streak", description: "Maintained a 30-day journaling streak", icon: "⚡", streak: 30},
	{id: "100_day_streak", name: "100 Day Streak", description: "Maintained a 100-day journaling streak", icon: "✨", streak: 100},
}

type milestoneDef struct {
	id, name, description string
	target                int
}

var milestones = []milestoneDef{
	{"first_trade", "First Trade", "Log your first trade", 1},
	{"10_trades", "10 Trades", "Log 10 trades", 10},
	{"50_trades", "50 Trades", "Log 50 trades", 50},
	{"100_trades", "100 Trades", "Log 100 trades", 100},
}

type BadgeView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earnedAt"`
}

type Milestone struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	TargetValue  int    `json:"targetValue"`
	CurrentValue int    `json:"currentValue"`
	Completed    bool   `json:"completed"`
}

type Progress struct {
	CurrentStreak       int         `json:"currentStreak"`
	LongestStreak       int         `json:"longestStreak"`
	TotalTrades         int         `json:"totalTrades"`
	TotalJournalEntries int         `json:"totalJournalEntries"`
	Badges              []BadgeView `json:"badges"`
	Milestones          []Milestone `json:"milestones"`
	Level               int         `json:"level"`
	XP                  int         `json:"xp"`
	XPToNextLevel       int         `json:"xpToNextLevel"`
}

// Summarize renders a user's record and trade count as level, milestones and badges.
func Summarize(g models.Gamification, tradeCount int) Progress {
	p := Progress{
		CurrentStreak:       g.CurrentJournalingStreak,
		LongestStreak:       g.LongestJournalingStreak,
		TotalTrades:         tradeCount,
		TotalJournalEntries: g.TotalDaysJournaled,
		Level:               tradeCount/tradesPerLevel + 1,
		XP:                  tradeCount % tradesPerLevel,
		XPToNextLevel:       tradesPerLevel,
		Badges:              make([]BadgeView, 0, len(g.Badges)),
		Milestones:          make([]Milestone, 0, len(milestones)),
	}
	for _, b := range g.Badges {
		p.Badges = append(p.Badges, viewOf(b))
	}
	for _, m := range milestones {
		p.Milestones = append(p.Milestones, Milestone{
			ID:           m.id,
			Name:         m.name,
			Description:  m.description,
			TargetValue:  m.target,
			CurrentValue: min(tradeCount, m.target),
			Completed:    tradeCount >= m.target,
		})
	}
	return p
}

func viewOf(b models.Badge) BadgeView {
	v := BadgeView{ID: b.Badge, Name: b.Badge, Description: "Achievement unlocked", Icon: defaultIcon, EarnedAt: b.EarnedAt}
	for _, d := range badges {
		if d.id == b.Badge {
			v.Name, v.Description, v.Icon = d.name, d.description, d.icon
			break
		}
	}
	return v
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecordActivity advances the journaling streak for a journal written on today
// (a calendar date in the trader's timezone) and awards any badges newly earned.
// The same day leaves the streak unchanged, the next day extends it, a gap resets it to 1.
func RecordActivity(g *models.Gamification, tradeCount int, today, now time.Time) []models.Badge {
	day := dateOf(today)
	sameDay := false

	switch {
	case g.LastJournalDate == nil:
		g.CurrentJournalingStreak = 1
	default:
		diff := int(day.Sub(dateOf(*g.LastJournalDate)).Hours() / 24)
		switch diff {
		case 0:
			sameDay = true
		case 1:
			g.CurrentJournalingStreak++
		default:
			g.CurrentJournalingStreak = 1
		}
	}
	if g.CurrentJournalingStreak > g.LongestJournalingStreak {
		g.LongestJournalingStreak = g.CurrentJournalingStreak
	}
	if !sameDay {
		g.TotalDaysJournaled++
	}
	g.LastJournalDate = &day
	g.TotalTradesLogged = tradeCount

	held := make([]string, len(g.Badges))
	for i, b := range g.Badges {
		held[i] = b.Badge
	}
	var earned []models.Badge
	for _, d := range badges {
		if slices.Contains(held, d.id) {
			continue
		}
		if (d.trades > 0 && tradeCount >= d.trades) || (d.streak > 0 && g.CurrentJournalingStreak >= d.streak) {
			earned = append(earned, models.Badge{Badge: d.id, EarnedAt: now})
		}
	}
	g.Badges = append(g.Badges, earned...)
	g.UpdatedAt = now
	return earned
}
