package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kjannette/mindful-trader/internal/models"
)

type Granularity string

const (
	ByDay  Granularity = "day"
	ByHour Granularity = "hour"
)

const (
	DefaultAvoidMinTrades     = 10
	DefaultAvoidMaxWinRate    = 40.0
	DefaultBestWorstMinTrades = 5
	DefaultBestWorstLimit     = 5
)

var dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func DayName(day int) string {
	if day < 0 || day > 6 {
		return "Unknown"
	}
	return dayNames[day]
}

// FormatHour renders a 0-23 hour on a 12-hour clock: 12am, 1am, ... 12pm, 1pm, ...
func FormatHour(hour int) string {
	switch {
	case hour < 0 || hour > 23:
		return "Invalid"
	case hour == 0:
		return "12am"
	case hour == 12:
		return "12pm"
	case hour < 12:
		return fmt.Sprintf("%dam", hour)
	default:
		return fmt.Sprintf("%dpm", hour-12)
	}
}

// TimeSlot is one heatmap bucket. Hour is nil for day-only buckets.
type TimeSlot struct {
	Day        int     `json:"day"`
	Hour       *int    `json:"hour"`
	TradeCount int     `json:"tradeCount"`
	WinCount   int     `json:"winCount"`
	WinRate    float64 `json:"winRate"`
	AvgPnL     float64 `json:"avgPnl"`
	TotalPnL   float64 `json:"totalPnl"`
}

func (s TimeSlot) Label() string {
	if s.Hour == nil {
		return DayName(s.Day)
	}
	return DayName(s.Day) + " " + FormatHour(*s.Hour)
}

type slotKey struct {
	day, hour int
}

// BuildHeatmap buckets closed trades by day, or by day and hour. Trades missing
// a day or hour are skipped. Rows are ordered by day then hour.
func BuildHeatmap(trades []models.Trade, g Granularity) []TimeSlot {
	type acc struct {
		count, wins int
		total       float64
	}
	buckets := make(map[slotKey]*acc)

	for _, t := range trades {
		if !t.IsClosed() || t.DayOfWeek == nil || t.HourOfDay == nil {
			continue
		}
		k := slotKey{day: *t.DayOfWeek, hour: -1}
		if g == ByHour {
			k.hour = *t.HourOfDay
		}
		a, ok := buckets[k]
		if !ok {
			a = &acc{}
			buckets[k] = a
		}
		a.count++
		a.total += t.PnL()
		if t.PnL() > 0 {
			a.wins++
		}
	}

	slots := make([]TimeSlot, 0, len(buckets))
	for k, a := range buckets {
		s := TimeSlot{
			Day:        k.day,
			TradeCount: a.count,
			WinCount:   a.wins,
			WinRate:    round2(CalculateWinRate(a.wins, a.count)),
			AvgPnL:     round2(a.total / float64(a.count)),
			TotalPnL:   round2(a.total),
		}
		if k.hour >= 0 {
			h := k.hour
			s.Hour = &h
		}
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return hourOf(slots[i]) < hourOf(slots[j])
	})
	return slots
}

func hourOf(s TimeSlot) int {
	if s.Hour == nil {
		return -1
	}
	return *s.Hour
}

type AvoidPattern struct {
	TimeSlot   string  `json:"timeSlot"`
	WinRate    float64 `json:"winRate"`
	AvgPnL     float64 `json:"avgPnl"`
	TradeCount int     `json:"tradeCount"`
	Message    string  `json:"message"`
}

// DetectAvoidPatterns flags slots with at least minTrades trades and a win rate
// below maxWinRate, worst win rate first. Slots under minTrades are never flagged.
func DetectAvoidPatterns(slots []TimeSlot, minTrades int, maxWinRate float64) []AvoidPattern {
	out := []AvoidPattern{}
	for _, s := range slots {
		if s.TradeCount < minTrades || s.WinRate >= maxWinRate {
			continue
		}
		out = append(out, AvoidPattern{
			TimeSlot:   s.Label(),
			WinRate:    s.WinRate,
			AvgPnL:     s.AvgPnL,
			TradeCount: s.TradeCount,
			Message:    avoidMessage(s),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate < out[j].WinRate
		}
		return out[i].TradeCount > out[j].TradeCount
	})
	return out
}

func avoidMessage(s TimeSlot) string {
	if s.Hour == nil {
		if s.AvgPnL < 0 {
			return "You lose money trading on " + s.Label()
		}
		return fmt.Sprintf("Low win rate (%.1f%%) on %s", s.WinRate, s.Label())
	}
	day, hour := DayName(s.Day), FormatHour(*s.Hour)
	if s.AvgPnL < 0 {
		return fmt.Sprintf("You lose money trading %ss after %s", day, hour)
	}
	return fmt.Sprintf("Low win rate (%.1f%%) on %ss at %s", s.WinRate, day, hour)
}

type SlotRank struct {
	Label      string  `json:"label"`
	WinRate    float64 `json:"winRate"`
	TradeCount int     `json:"tradeCount"`
	AvgPnL     float64 `json:"avgPnl"`
	TotalPnL   float64 `json:"totalPnl"`
}

type BestWorstTimes struct {
	BestTimes  []SlotRank `json:"bestTimes"`
	WorstTimes []SlotRank `json:"worstTimes"`
}

// RankTimes lists the best and worst slots by win rate among slots with at
// least minTrades trades. Ties go to the larger sample, then to the label.
func RankTimes(slots []TimeSlot, minTrades, limit int) BestWorstTimes {
	if limit <= 0 {
		limit = DefaultBestWorstLimit
	}
	eligible := make([]SlotRank, 0, len(slots))
	for _, s := range slots {
		if s.TradeCount < minTrades {
			continue
		}
		eligible = append(eligible, SlotRank{
			Label:      s.Label(),
			WinRate:    s.WinRate,
			TradeCount: s.TradeCount,
			AvgPnL:     s.AvgPnL,
			TotalPnL:   s.TotalPnL,
		})
	}

	byRate := func(desc bool) []SlotRank {
		out := append([]SlotRank(nil), eligible...)
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.WinRate != b.WinRate {
				if desc {
					return a.WinRate > b.WinRate
				}
				return a.WinRate < b.WinRate
			}
			if a.TradeCount != b.TradeCount {
				return a.TradeCount > b.TradeCount
			}
			return strings.Compare(a.Label, b.Label) < 0
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return out
	}

	return BestWorstTimes{BestTimes: byRate(true), WorstTimes: byRate(false)}
}
