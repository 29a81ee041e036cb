package analytics

import (
	"sort"

	"github.com/kjannette/mindful-trader/internal/models"
)

const unassignedStrategy = "Unassigned"

type StrategyPerformance struct {
	Strategy     string       `json:"strategy"`
	TradeCount   int          `json:"tradeCount"`
	WinRate      float64      `json:"winRate"`
	TotalPnL     float64      `json:"totalPnl"`
	AvgPnL       float64      `json:"avgPnl"`
	ProfitFactor ProfitFactor `json:"profitFactor"`
}

// StrategyBreakdown groups closed trades by the strategy named in their
// pre-trade journal. Trades without one fall under "Unassigned". Sorted by total P&L.
func StrategyBreakdown(trades []models.Trade) []StrategyPerformance {
	groups := make(map[string][]float64)
	for _, t := range trades {
		if !t.IsClosed() {
			continue
		}
		name := unassignedStrategy
		if t.StrategyName != nil && *t.StrategyName != "" {
			name = *t.StrategyName
		}
		groups[name] = append(groups[name], t.PnL())
	}

	out := make([]StrategyPerformance, 0, len(groups))
	for name, pnls := range groups {
		wins := 0
		for _, p := range pnls {
			if p > 0 {
				wins++
			}
		}
		out = append(out, StrategyPerformance{
			Strategy:     name,
			TradeCount:   len(pnls),
			WinRate:      round2(CalculateWinRate(wins, len(pnls))),
			TotalPnL:     round2(sum(pnls)),
			AvgPnL:       round2(mean(pnls)),
			ProfitFactor: ProfitFactor(round2(CalculateProfitFactor(pnls))),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPnL != out[j].TotalPnL {
			return out[i].TotalPnL > out[j].TotalPnL
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out
}
