package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/kjannette/mindful-trader/internal/models"
)

// ProfitFactor is a ratio that may be +Inf. It marshals +Inf as the JSON
// string "Infinity" since encoding/json rejects non-finite numbers.
type ProfitFactor float64

func (p ProfitFactor) IsInf() bool {
	return math.IsInf(float64(p), 1)
}

func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	if p.IsInf() {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(float64(p))
}

func (p *ProfitFactor) UnmarshalJSON(b []byte) error {
	if string(b) == `"Infinity"` {
		*p = ProfitFactor(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*p = ProfitFactor(f)
	return nil
}

// CalculateProfitFactor is gross profit over gross loss. No losses with some
// profit is +Inf; no losses and no profit is 0.
func CalculateProfitFactor(pnls []float64) float64 {
	var profit, loss float64
	for _, p := range pnls {
		if p > 0 {
			profit += p
		} else if p < 0 {
			loss += p
		}
	}
	loss = math.Abs(loss)
	if loss == 0 {
		if profit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return profit / loss
}

// CalculateExpectancy is the mean net P&L of closed trades; open trades are ignored.
func CalculateExpectancy(trades []models.Trade) float64 {
	return mean(closedPnLs(trades))
}

// CurrentStreak counts consecutive same-class outcomes from the most recent
// exit backwards. Wins are positive; losses and breakevens share the negative class.
func CurrentStreak(trades []models.Trade) int {
	closed := sortedByExitDesc(trades)
	if len(closed) == 0 {
		return 0
	}
	winning := closed[0].PnL() > 0
	n := 0
	for _, t := range closed {
		if (t.PnL() > 0) != winning {
			break
		}
		n++
	}
	if !winning {
		return -n
	}
	return n
}

// CalculateSharpeRatio is mean excess return over population stddev, 0 when the stddev is 0.
func CalculateSharpeRatio(returns []float64, riskFreeRate float64) float64 {
	sd := popStdDev(returns)
	if sd == 0 {
		return 0
	}
	return (mean(returns) - riskFreeRate) / sd
}

// CalculateMaxDrawdown is the largest peak-to-trough fall of an equity curve, in
// percent of the peak. Non-positive peaks have no meaningful percentage and are skipped.
func CalculateMaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	var maxDD float64
	peak := equity[0]
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// EquityCurve is cumulative net P&L in ascending exit order.
func EquityCurve(trades []models.Trade) []EquityPoint {
	closed := sortedByExitDesc(trades)
	points := make([]EquityPoint, 0, len(closed))
	var running float64
	for i := len(closed) - 1; i >= 0; i-- {
		running += closed[i].PnL()
		points = append(points, EquityPoint{Date: *closed[i].ExitDate, Equity: running})
	}
	return points
}

type PortfolioMetrics struct {
	TotalPnL      float64       `json:"totalPnL"`
	TotalTrades   int           `json:"totalTrades"`
	WinRate       float64       `json:"winRate"`
	ProfitFactor  ProfitFactor  `json:"profitFactor"`
	Expectancy    float64       `json:"expectancy"`
	AvgRR         float64       `json:"avgRR"`
	AvgWin        float64       `json:"avgWin"`
	AvgLoss       float64       `json:"avgLoss"`
	LargestWin    float64       `json:"largestWin"`
	LargestLoss   float64       `json:"largestLoss"`
	CurrentStreak int           `json:"currentStreak"`
	SharpeRatio   float64       `json:"sharpeRatio"`
	MaxDrawdown   float64       `json:"maxDrawdown"`
	EquityCurve   []EquityPoint `json:"equityCurve"`
}

// ComputePortfolio reduces closed trades into portfolio metrics. Open trades
// are skipped; an empty set yields all zeros.
func ComputePortfolio(trades []models.Trade) PortfolioMetrics {
	pnls := closedPnLs(trades)
	m := PortfolioMetrics{
		TotalTrades: len(pnls),
		EquityCurve: []EquityPoint{},
	}
	if len(pnls) == 0 {
		return m
	}

	var wins, losses []float64
	for _, p := range pnls {
		m.TotalPnL += p
		if p > 0 {
			wins = append(wins, p)
			if p > m.LargestWin {
				m.LargestWin = p
			}
		} else if p < 0 {
			losses = append(losses, math.Abs(p))
			if p < m.LargestLoss {
				m.LargestLoss = p
			}
		}
	}

	var rrs []float64
	for _, t := range trades {
		if t.IsClosed() && t.ActualRR != nil && *t.ActualRR > 0 {
			rrs = append(rrs, *t.ActualRR)
		}
	}

	m.WinRate = CalculateWinRate(len(wins), len(pnls))
	m.ProfitFactor = ProfitFactor(CalculateProfitFactor(pnls))
	m.Expectancy = CalculateExpectancy(trades)
	m.AvgRR = mean(rrs)
	m.AvgWin = mean(wins)
	m.AvgLoss = mean(losses)
	m.CurrentStreak = CurrentStreak(trades)
	m.SharpeRatio = CalculateSharpeRatio(pnls, 0)
	m.EquityCurve = EquityCurve(trades)

	equity := make([]float64, len(m.EquityCurve))
	for i, p := range m.EquityCurve {
		equity[i] = p.Equity
	}
	m.MaxDrawdown = CalculateMaxDrawdown(equity)
	return m
}

func closedPnLs(trades []models.Trade) []float64 {
	out := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() {
			out = append(out, *t.NetPnL)
		}
	}
	return out
}

// sortedByExitDesc returns the closed trades with an exit date, most recent
// first. Equal exit times keep input order.
func sortedByExitDesc(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() && t.ExitDate != nil {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExitDate.After(*out[j].ExitDate)
	})
	return out
}
