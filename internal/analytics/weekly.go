package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/kjannette/mindful-trader/internal/models"
)

const dateLayout = "2006-01-02"

type WeekMetrics struct {
	TotalTrades         int     `json:"totalTrades"`
	TradesWithJournals  int     `json:"tradesWithJournals"`
	DisciplineScore     int     `json:"disciplineScore"`
	RuleAdherenceRate   float64 `json:"ruleAdherenceRate"`
	FOMOTradeCount      int     `json:"fomoTradeCount"`
	EmotionalVolatility float64 `json:"emotionalVolatility"`
	WinRate             float64 `json:"winRate"`
	TotalPnL            float64 `json:"totalPnl"`
}

type WeekWindow struct {
	Start   string      `json:"start"`
	End     string      `json:"end"`
	Metrics WeekMetrics `json:"metrics"`
}

type WeeklyReport struct {
	ReportDate   string     `json:"reportDate"`
	CurrentWeek  WeekWindow `json:"currentWeek"`
	PreviousWeek WeekWindow `json:"previousWeek"`
	Insights     []string   `json:"insights"`
	Summary      string     `json:"summary"`
}

// InRange keeps closed trades whose entry falls in [start, end], both ends inclusive.
func InRange(trades []models.Trade, start, end time.Time) []models.Trade {
	var out []models.Trade
	for _, t := range trades {
		if !t.IsClosed() || t.EntryDate.Before(start) || t.EntryDate.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func weekMetrics(trades []models.Trade) WeekMetrics {
	if len(trades) == 0 {
		return WeekMetrics{}
	}
	d := ComputeDiscipline(trades)
	pnls := closedPnLs(trades)
	wins := 0
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	return WeekMetrics{
		TotalTrades:         len(trades),
		TradesWithJournals:  d.JournaledTrades,
		DisciplineScore:     d.Score,
		RuleAdherenceRate:   d.RuleAdherenceRate,
		FOMOTradeCount:      d.FOMOCount,
		EmotionalVolatility: d.EmotionalVolatility,
		WinRate:             round2(CalculateWinRate(wins, len(trades))),
		TotalPnL:            round2(sum(pnls)),
	}
}

// BuildWeeklyReport compares the seven days ending at now with the seven days
// before that. trades may span any range; they are windowed here.
func BuildWeeklyReport(trades []models.Trade, now time.Time) WeeklyReport {
	curStart := now.AddDate(0, 0, -7)
	prevStart := curStart.AddDate(0, 0, -7)

	cur := weekMetrics(InRange(trades, curStart, now))
	prev := weekMetrics(InRange(trades, prevStart, curStart))
	insights := weeklyInsights(cur, prev)

	summary := "Complete more trades with journals to generate meaningful insights."
	if len(insights) > 0 {
		summary = fmt.Sprintf("This week you made %d trades with a discipline score of %d/100.", cur.TotalTrades, cur.DisciplineScore)
	}

	return WeeklyReport{
		ReportDate:   now.Format(dateLayout),
		CurrentWeek:  WeekWindow{Start: curStart.Format(dateLayout), End: now.Format(dateLayout), Metrics: cur},
		PreviousWeek: WeekWindow{Start: prevStart.Format(dateLayout), End: curStart.Format(dateLayout), Metrics: prev},
		Insights:     insights,
		Summary:      summary,
	}
}

func weeklyInsights(cur, prev WeekMetrics) []string {
	insights := []string{}
	add := func(format string, args ...any) {
		insights = append(insights, fmt.Sprintf(format, args...))
	}

	switch {
	case cur.TotalTrades > prev.TotalTrades:
		add("📈 You increased your trading activity by %d trades this week.", cur.TotalTrades-prev.TotalTrades)
	case cur.TotalTrades < prev.TotalTrades:
		add("📉 You traded %d fewer times this week.", prev.TotalTrades-cur.TotalTrades)
	}

	change := cur.DisciplineScore - prev.DisciplineScore
	switch {
	case change > 10:
		add("✅ Great improvement! Your discipline score increased by %d points.", change)
	case change < -10:
		add("⚠️ Your discipline score decreased by %d points. Review your trading plan adherence.", -change)
	case cur.DisciplineScore >= 80:
		add("⭐ Excellent discipline! You maintained a high score of %d.", cur.DisciplineScore)
	}

	switch {
	case cur.FOMOTradeCount == 0 && prev.FOMOTradeCount > 0:
		add("🎯 Perfect! No FOMO trades this week, down from %d last week.", prev.FOMOTradeCount)
	case cur.FOMOTradeCount > prev.FOMOTradeCount:
		add("⚠️ FOMO trades increased to %d. Take a step back and focus on your strategy.", cur.FOMOTradeCount)
	}

	journaling := CalculateWinRate(cur.TradesWithJournals, cur.TotalTrades)
	switch {
	case journaling == 100:
		add("📝 Outstanding! You journaled 100%% of your trades this week.")
	case journaling < 50:
		add("📝 Try to journal more consistently. You only journaled %d%% of trades.", int(math.Round(journaling)))
	}

	pnlChange := math.Abs(cur.TotalPnL - prev.TotalPnL)
	switch {
	case cur.TotalPnL > 0 && cur.TotalPnL > prev.TotalPnL:
		add("💰 Profitable week! Your P&L improved by $%.2f.", pnlChange)
	case cur.TotalPnL < 0 && cur.TotalPnL < prev.TotalPnL:
		add("📊 Focus on discipline. Your P&L declined by $%.2f this week.", pnlChange)
	}

	switch {
	case cur.EmotionalVolatility < prev.EmotionalVolatility:
		add("🧘 Improved emotional control! Your emotional volatility decreased.")
	case cur.EmotionalVolatility > 2.5:
		add("🧠 High emotional volatility detected. Consider meditation or breaks between trades.")
	}

	return insights
}
