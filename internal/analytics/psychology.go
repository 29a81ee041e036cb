package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kjannette/mindful-trader/internal/models"
)

const (
	ruleAdherenceWeight    = 0.4
	emotionalControlWeight = 0.3
	setupQualityWeight     = 0.3

	// Volatility below this keeps full emotional control marks.
	calmVolatility = 2.0
	// Setup quality used when no journaled trade rated its setup, on the 0-100 scale.
	defaultSetupQualityScore = 50.0
)

// DisciplineMetrics is computed over journaled trades only. With no journaled
// trades Score is 0 and HasData is false.
type DisciplineMetrics struct {
	Score               int     `json:"disciplineScore"`
	HasData             bool    `json:"hasData"`
	JournaledTrades     int     `json:"tradesWithJournals"`
	RuleAdherenceRate   float64 `json:"ruleAdherenceRate"`
	EmotionalVolatility float64 `json:"emotionalVolatility"`
	EmotionalControl    float64 `json:"emotionalControl"`
	SetupQualityScore   float64 `json:"setupQualityScore"`
	FOMOCount           int     `json:"fomoTradeCount"`
	RevengeCount        int     `json:"revengeTradeCount"`
}

// Journaled keeps trades that carry both a pre- and a post-trade journal.
func Journaled(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsJournaled() {
			out = append(out, t)
		}
	}
	return out
}

func followedPlan(t models.Trade) bool {
	return t.Post != nil && t.Post.FollowedPlan != nil && *t.Post.FollowedPlan
}

// EmotionalControl maps volatility to a 0-100 score.
func EmotionalControl(volatility float64) float64 {
	if volatility < calmVolatility {
		return 100
	}
	return math.Max(0, 100-volatility*15)
}

// ComputeDiscipline scores plan adherence, emotional stability and setup quality.
// The result depends only on the multiset of trades, not their order.
func ComputeDiscipline(trades []models.Trade) DisciplineMetrics {
	journaled := Journaled(trades)
	m := DisciplineMetrics{JournaledTrades: len(journaled)}
	if len(journaled) == 0 {
		return m
	}
	m.HasData = true

	followed := 0
	var scores, setups []float64
	for _, t := range journaled {
		if followedPlan(t) {
			followed++
		}
		if t.Pre.HasEmotion(models.EmotionFOMO) {
			m.FOMOCount++
		}
		if t.Pre.HasEmotion(models.EmotionRevenge) {
			m.RevengeCount++
		}
		if t.Pre.EmotionalScore != nil {
			scores = append(scores, float64(*t.Pre.EmotionalScore))
		}
		if t.Pre.SetupQuality != nil {
			setups = append(setups, float64(*t.Pre.SetupQuality))
		}
	}

	adherence := CalculateWinRate(followed, len(journaled))
	// Fixed summation order keeps the float result independent of input order.
	sort.Float64s(scores)
	volatility := popStdDev(scores)
	control := EmotionalControl(volatility)
	setup := defaultSetupQualityScore
	if len(setups) > 0 {
		setup = mean(setups) * 20
	}

	m.Score = int(math.Round(adherence*ruleAdherenceWeight + control*emotionalControlWeight + setup*setupQualityWeight))
	m.RuleAdherenceRate = round2(adherence)
	m.EmotionalVolatility = round2(volatility)
	m.EmotionalControl = round2(control)
	m.SetupQualityScore = round2(setup)
	return m
}

type EmotionPerformance struct {
	Emotion    string  `json:"emotion"`
	TradeCount int     `json:"tradeCount"`
	WinRate    float64 `json:"winRate"`
	AvgPnL     float64 `json:"avgPnl"`
	TotalPnL   float64 `json:"totalPnl"`
}

type PsychologyMetrics struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	TotalTrades int    `json:"totalTrades"`
	DisciplineMetrics

	MostCommonPreEmotion    *string              `json:"mostCommonPreTradeEmotion"`
	MostCommonPostEmotion   *string              `json:"mostCommonPostTradeEmotion"`
	DisciplinedTradeWinRate float64              `json:"disciplinedTradeWinRate"`
	FOMOTradeWinRate        float64              `json:"fomoTradeWinRate"`
	EmotionPerformance      []EmotionPerformance `json:"emotionPerformance"`
}

// ComputePsychology builds the behavioral summary over closed trades.
func ComputePsychology(trades []models.Trade) PsychologyMetrics {
	var closed []models.Trade
	for _, t := range trades {
		if t.IsClosed() {
			closed = append(closed, t)
		}
	}
	journaled := Journaled(closed)
	m := PsychologyMetrics{
		TotalTrades:        len(closed),
		DisciplineMetrics:  ComputeDiscipline(closed),
		EmotionPerformance: emotionPerformance(journaled),
	}

	var pre, post []string
	var disciplinedWins, disciplined, fomoWins, fomo int
	for _, t := range journaled {
		pre = append(pre, t.Pre.EmotionalState...)
		post = append(post, t.Post.EmotionalState...)
		win := t.PnL() > 0
		if followedPlan(t) {
			disciplined++
			if win {
				disciplinedWins++
			}
		}
		if t.Pre.HasEmotion(models.EmotionFOMO) {
			fomo++
			if win {
				fomoWins++
			}
		}
	}
	m.MostCommonPreEmotion = mostCommon(pre)
	m.MostCommonPostEmotion = mostCommon(post)
	m.DisciplinedTradeWinRate = round2(CalculateWinRate(disciplinedWins, disciplined))
	m.FOMOTradeWinRate = round2(CalculateWinRate(fomoWins, fomo))
	return m
}

// mostCommon returns the most frequent tag; ties go to the lexically smallest.
func mostCommon(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, t := range tags {
		counts[t]++
	}
	var best string
	for tag, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && tag < best) {
			best = tag
		}
	}
	return &best
}

func emotionPerformance(journaled []models.Trade) []EmotionPerformance {
	pnls := make(map[string][]float64)
	for _, t := range journaled {
		seen := make(map[string]bool)
		for _, e := range t.Pre.EmotionalState {
			if seen[e] {
				continue
			}
			seen[e] = true
			pnls[e] = append(pnls[e], t.PnL())
		}
	}
	out := make([]EmotionPerformance, 0, len(pnls))
	for e, ps := range pnls {
		wins := 0
		for _, p := range ps {
			if p > 0 {
				wins++
			}
		}
		out = append(out, EmotionPerformance{
			Emotion:    e,
			TradeCount: len(ps),
			WinRate:    round2(CalculateWinRate(wins, len(ps))),
			AvgPnL:     round2(mean(ps)),
			TotalPnL:   round2(sum(ps)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TradeCount != out[j].TradeCount {
			return out[i].TradeCount > out[j].TradeCount
		}
		return out[i].Emotion < out[j].Emotion
	})
	return out
}

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// allTimeStart bounds the "all" period.
var allTimeStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// PeriodRange returns the [start, end] window of a period ending at now.
func PeriodRange(p Period, now time.Time) (time.Time, time.Time, error) {
	switch p {
	case PeriodWeek, "":
		return now.AddDate(0, 0, -7), now, nil
	case PeriodMonth:
		return now.AddDate(0, -1, 0), now, nil
	case PeriodAll:
		return allTimeStart, now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf(`invalid period %q: must be "week", "month", or "all"`, p)
	}
}
