// Package analytics holds the trading-performance calculators. Every function
// here is a pure reduction over its arguments: no I/O, no clock, no errors.
// Degenerate input collapses to documented zero or sentinel values.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/mindful-trader/internal/models"
)

func directionSign(d models.Direction) decimal.Decimal {
	if d == models.Short {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// CalculateGrossPnL is (exit-entry)*qty for long positions and (entry-exit)*qty for short.
func CalculateGrossPnL(direction models.Direction, entryPrice, exitPrice float64, quantity int) float64 {
	gross := decimal.NewFromFloat(exitPrice).
		Sub(decimal.NewFromFloat(entryPrice)).
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(directionSign(direction))
	return gross.InexactFloat64()
}

// CalculatePnL returns the net P&L: gross P&L less commissions.
func CalculatePnL(direction models.Direction, entryPrice, exitPrice float64, quantity int, commissions float64) float64 {
	gross := decimal.NewFromFloat(CalculateGrossPnL(direction, entryPrice, exitPrice, quantity))
	return gross.Sub(decimal.NewFromFloat(commissions)).InexactFloat64()
}

// CalculateReturnPercent is pnl over cost basis, in percent. Zero cost basis yields 0.
func CalculateReturnPercent(pnl, entryPrice float64, quantity int) float64 {
	basis := decimal.NewFromFloat(entryPrice).Mul(decimal.NewFromInt(int64(quantity)))
	if basis.IsZero() {
		return 0
	}
	return decimal.NewFromFloat(pnl).Div(basis).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// CalculateRiskReward is reward distance over risk distance, signed per direction.
// A zero risk distance yields 0.
func CalculateRiskReward(entry, stop, target float64, direction models.Direction) float64 {
	var risk, reward float64
	if direction == models.Short {
		risk = stop - entry
		reward = entry - target
	} else {
		risk = entry - stop
		reward = target - entry
	}
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// CalculateWinRate is wins/total*100, 0 when total is 0.
func CalculateWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// Derived holds the stored fields computed from a trade's raw input.
type Derived struct {
	GrossPnL            *float64
	NetPnL              *float64
	ReturnPercent       *float64
	ActualRR            *float64
	HoldDurationMinutes *int
	DayOfWeek           int
	HourOfDay           int
}

// Derive computes the stored P&L and time-slot fields of a trade. Day and hour
// come from the entry time in loc. P&L fields stay nil for an open trade;
// ActualRR additionally needs a planned stop.
func Derive(in models.TradeInput, plannedStop *float64, loc *time.Location) Derived {
	if loc == nil {
		loc = time.UTC
	}
	entry := in.EntryDate.In(loc)
	d := Derived{
		DayOfWeek: int(entry.Weekday()),
		HourOfDay: entry.Hour(),
	}
	if in.ExitPrice == nil || in.ExitDate == nil {
		return d
	}

	gross := CalculateGrossPnL(in.Direction, in.EntryPrice, *in.ExitPrice, in.Quantity)
	net := CalculatePnL(in.Direction, in.EntryPrice, *in.ExitPrice, in.Quantity, in.Commissions)
	ret := CalculateReturnPercent(net, in.EntryPrice, in.Quantity)
	hold := int(in.ExitDate.Sub(in.EntryDate).Minutes())
	d.GrossPnL, d.NetPnL, d.ReturnPercent, d.HoldDurationMinutes = &gross, &net, &ret, &hold

	if plannedStop != nil {
		rr := CalculateRiskReward(in.EntryPrice, *plannedStop, *in.ExitPrice, in.Direction)
		d.ActualRR = &rr
	}
	return d
}
