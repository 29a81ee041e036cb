package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/kjannette/mindful-trader/internal/models"
)

// ProfitFactorSentinel stands in for an infinite profit factor in market tables.
const ProfitFactorSentinel = 999.99

type GroupBy string

const (
	GroupBySPYTrend GroupBy = "spy_trend"
	GroupBySector   GroupBy = "sector"
	GroupByBoth     GroupBy = "both"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case "":
		return GroupByBoth, nil
	case GroupBySPYTrend, GroupBySector, GroupByBoth:
		return g, nil
	default:
		return "", fmt.Errorf(`invalid groupBy %q: must be "spy_trend", "sector", or "both"`, s)
	}
}

type ConditionMetrics struct {
	WinRate      float64 `json:"winRate"`
	ProfitFactor float64 `json:"profitFactor"`
	AvgPnL       float64 `json:"avgPnl"`
	TradeCount   int     `json:"tradeCount"`
	TotalPnL     float64 `json:"totalPnl"`
}

// ConditionMetricsFor summarises a group of P&Ls with two-decimal rounding.
// An empty group is all zeros.
func ConditionMetricsFor(pnls []float64) ConditionMetrics {
	if len(pnls) == 0 {
		return ConditionMetrics{}
	}
	wins := 0
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	pf := CalculateProfitFactor(pnls)
	if math.IsInf(pf, 1) {
		pf = ProfitFactorSentinel
	}
	total := sum(pnls)
	return ConditionMetrics{
		WinRate:      round2(CalculateWinRate(wins, len(pnls))),
		ProfitFactor: round2(pf),
		AvgPnL:       round2(total / float64(len(pnls))),
		TradeCount:   len(pnls),
		TotalPnL:     round2(total),
	}
}

// ConditionScore blends win rate and capped profit factor equally; 0 for an empty group.
func ConditionScore(m ConditionMetrics) float64 {
	if m.TradeCount == 0 {
		return 0
	}
	return m.WinRate*0.5 + math.Min(m.ProfitFactor*10, 100)*0.5
}

type SPYConditions struct {
	Uptrend   ConditionMetrics  `json:"uptrend"`
	Downtrend ConditionMetrics  `json:"downtrend"`
	Sideways  ConditionMetrics  `json:"sideways"`
	Choppy    *ConditionMetrics `json:"choppy,omitempty"`
}

type SectorMetrics struct {
	Sector string `json:"sector"`
	ConditionMetrics
}

type MarketSummary struct {
	BestSPYCondition  string `json:"bestSpyCondition"`
	WorstSPYCondition string `json:"worstSpyCondition"`
	BestSector        string `json:"bestSector"`
	WorstSector       string `json:"worstSector"`
}

type MarketCorrelation struct {
	SPYTrending SPYConditions   `json:"spyTrending"`
	Sectors     []SectorMetrics `json:"sectors"`
	Summary     MarketSummary   `json:"summary"`
}

const notAvailable = "N/A"

// MarketCorrelator groups closed trades by journaled market context.
type MarketCorrelator struct {
	Vocabulary SectorVocabulary
}

func NewMarketCorrelator(vocab SectorVocabulary) *MarketCorrelator {
	return &MarketCorrelator{Vocabulary: vocab}
}

// Correlate partitions closed trades by SPY trend and by inferred sector. Trades
// with no pre-trade journal, or with neither a trend nor sector context, are dropped.
func (c *MarketCorrelator) Correlate(trades []models.Trade, groupBy GroupBy) MarketCorrelation {
	spy := make(map[models.SPYTrend][]float64)
	sectors := make(map[string][]float64)
	var sectorOrder []string

	for _, t := range trades {
		if !t.IsClosed() || t.Pre == nil {
			continue
		}
		pre := t.Pre
		if pre.SPYTrend != nil && groupBy != GroupBySector {
			spy[*pre.SPYTrend] = append(spy[*pre.SPYTrend], t.PnL())
		}
		if pre.SectorContext != nil && groupBy != GroupBySPYTrend {
			name, ok := c.Vocabulary.Parse(*pre.SectorContext)
			if !ok {
				continue
			}
			if _, seen := sectors[name]; !seen {
				sectorOrder = append(sectorOrder, name)
			}
			sectors[name] = append(sectors[name], t.PnL())
		}
	}

	out := MarketCorrelation{
		SPYTrending: SPYConditions{
			Uptrend:   ConditionMetricsFor(spy[models.Uptrend]),
			Downtrend: ConditionMetricsFor(spy[models.Downtrend]),
			Sideways:  ConditionMetricsFor(spy[models.Sideways]),
		},
		Sectors: make([]SectorMetrics, 0, len(sectorOrder)),
	}
	if pnls, ok := spy[models.Choppy]; ok {
		m := ConditionMetricsFor(pnls)
		out.SPYTrending.Choppy = &m
	}

	for _, name := range sectorOrder {
		out.Sectors = append(out.Sectors, SectorMetrics{Sector: name, ConditionMetrics: ConditionMetricsFor(sectors[name])})
	}
	sort.SliceStable(out.Sectors, func(i, j int) bool {
		return out.Sectors[i].WinRate > out.Sectors[j].WinRate
	})

	out.Summary = summarize(out.SPYTrending, out.Sectors)
	return out
}

type scoredCondition struct {
	name    string
	metrics ConditionMetrics
}

// bestWorst picks the highest and lowest scoring conditions. Equal scores keep input order.
func bestWorst(conds []scoredCondition) (best, worst string) {
	if len(conds) == 0 {
		return notAvailable, notAvailable
	}
	sorted := append([]scoredCondition(nil), conds...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ConditionScore(sorted[i].metrics) > ConditionScore(sorted[j].metrics)
	})
	return sorted[0].name, sorted[len(sorted)-1].name
}

func summarize(spy SPYConditions, sectors []SectorMetrics) MarketSummary {
	candidates := []scoredCondition{
		{string(models.Uptrend), spy.Uptrend},
		{string(models.Downtrend), spy.Downtrend},
		{string(models.Sideways), spy.Sideways},
	}
	if spy.Choppy != nil {
		candidates = append(candidates, scoredCondition{string(models.Choppy), *spy.Choppy})
	}
	var traded []scoredCondition
	for _, c := range candidates {
		if c.metrics.TradeCount > 0 {
			traded = append(traded, c)
		}
	}

	secs := make([]scoredCondition, len(sectors))
	for i, s := range sectors {
		secs[i] = scoredCondition{s.Sector, s.ConditionMetrics}
	}

	var ms MarketSummary
	ms.BestSPYCondition, ms.WorstSPYCondition = bestWorst(traded)
	ms.BestSector, ms.WorstSector = bestWorst(secs)
	return ms
}
