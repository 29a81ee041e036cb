package gamification

import (
	"testing"
	"time"

	"github.com/kjannette/mindful-trader/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 0, 0, 0, time.UTC)
}

func TestSummarize_LevelAndMilestones(t *testing.T) {
	p := Summarize(models.Gamification{CurrentJournalingStreak: 3, TotalDaysJournaled: 9}, 23)
	if p.Level != 3 || p.XP != 3 || p.XPToNextLevel != 10 {
		t.Fatalf("expected level 3 xp 3/10, got level %d xp %d/%d", p.Level, p.XP, p.XPToNextLevel)
	}
	if len(p.Milestones) != 4 {
		t.Fatalf("expected 4 milestones, got %d", len(p.Milestones))
	}
	if !p.Milestones[1].Completed || p.Milestones[2].Completed || p.Milestones[2].CurrentValue != 23 {
		t.Fatalf("unexpected milestones %+v", p.Milestones)
	}
	if p.TotalJournalEntries != 9 {
		t.Fatalf("expected 9 journal days, got %d", p.TotalJournalEntries)
	}
}

func TestSummarize_NewUser(t *testing.T) {
	p := Summarize(models.Gamification{}, 0)
	if p.Level != 1 || p.XP != 0 || p.Milestones[0].Completed {
		t.Fatalf("unexpected new-user progress %+v", p)
	}
	if p.Badges == nil {
		t.Fatal("badges should be an empty slice")
	}
}

func TestSummarize_UnknownBadge(t *testing.T) {
	p := Summarize(models.Gamification{Badges: []models.Badge{{Badge: "legacy"}, {Badge: "7_day_streak"}}}, 0)
	if p.Badges[0].Icon != "🏅" || p.Badges[0].Description != "Achievement unlocked" {
		t.Fatalf("unexpected fallback badge %+v", p.Badges[0])
	}
	if p.Badges[1].Name != "7 Day Streak" {
		t.Fatalf("expected 7 Day Streak, got %s", p.Badges[1].Name)
	}
}

func TestRecordActivity_Streak(t *testing.T) {
	now := time.Now()
	g := &models.Gamification{}

	RecordActivity(g, 1, date(2024, 5, 1), now)
	if g.CurrentJournalingStreak != 1 || g.TotalDaysJournaled != 1 {
		t.Fatalf("first entry: streak %d days %d", g.CurrentJournalingStreak, g.TotalDaysJournaled)
	}

	RecordActivity(g, 2, date(2024, 5, 1), now)
	if g.CurrentJournalingStreak != 1 || g.TotalDaysJournaled != 1 {
		t.Fatalf("same day should not change: streak %d days %d", g.CurrentJournalingStreak, g.TotalDaysJournaled)
	}

	RecordActivity(g, 3, date(2024, 5, 2), now)
	RecordActivity(g, 4, date(2024, 5, 3), now)
	if g.CurrentJournalingStreak != 3 || g.LongestJournalingStreak != 3 {
		t.Fatalf("expected streak 3, got %d (longest %d)", g.CurrentJournalingStreak, g.LongestJournalingStreak)
	}

	RecordActivity(g, 5, date(2024, 5, 10), now)
	if g.CurrentJournalingStreak != 1 || g.LongestJournalingStreak != 3 {
		t.Fatalf("gap should reset to 1 and keep longest 3, got %d / %d", g.CurrentJournalingStreak, g.LongestJournalingStreak)
	}
	if g.TotalDaysJournaled != 4 || g.TotalTradesLogged != 5 {
		t.Fatalf("expected 4 days / 5 trades, got %d / %d", g.TotalDaysJournaled, g.TotalTradesLogged)
	}
}

func TestRecordActivity_Badges(t *testing.T) {
	now := time.Now()
	last := date(2024, 5, 6)
	g := &models.Gamification{CurrentJournalingStreak: 6, LastJournalDate: &last}

	earned := RecordActivity(g, 55, date(2024, 5, 7), now)
	if len(earned) != 3 {
		t.Fatalf("expected 10_trades, 50_trades and 7_day_streak, got %+v", earned)
	}
	want := []string{"10_trades", "50_trades", "7_day_streak"}
	for i, w := range want {
		if earned[i].Badge != w {
			t.Fatalf("badge %d: expected %s, got %s", i, w, earned[i].Badge)
		}
	}

	again := RecordActivity(g, 56, date(2024, 5, 8), now)
	if len(again) != 0 {
		t.Fatalf("badges must not be awarded twice, got %+v", again)
	}
	if len(g.Badges) != 3 {
		t.Fatalf("expected 3 held badges, got %d", len(g.Badges))
	}
}
