package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DailyTradeCounter abstracts the trade-counting dependency so Guardian
// can be tested without a real database.
type DailyTradeCounter interface {
	CountOnDay(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)
}

// Limits holds the discipline thresholds from config.
// A zero value for any field means that check is disabled.
type Limits struct {
	MaxDailyTrades     int
	MaxPositionSizeUSD float64
}

const (
	WarningOvertrading       = "overtrading"
	WarningOversizedPosition = "oversized_position"
)

// Warning flags a logged trade that breaks the trader's own limits. Trades are
// always recorded; warnings are advisory.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type Guardian struct {
	limits  Limits
	counter DailyTradeCounter
}

func NewGuardian(limits Limits, counter DailyTradeCounter) *Guardian {
	return &Guardian{limits: limits, counter: counter}
}

// PreTradeCheck evaluates a trade about to be logged on day. The daily count
// excludes the trade itself.
func (g *Guardian) PreTradeCheck(ctx context.Context, userID uuid.UUID, day time.Time, positionValue float64) ([]Warning, error) {
	warnings := []Warning{}

	if g.limits.MaxPositionSizeUSD > 0 && positionValue > g.limits.MaxPositionSizeUSD {
		warnings = append(warnings, Warning{
			Kind:    WarningOversizedPosition,
			Message: fmt.Sprintf("position size $%.2f exceeds your max of $%.2f",
				positionValue, g.limits.MaxPositionSizeUSD),
		})
	}

	if g.limits.MaxDailyTrades > 0 && g.counter != nil {
		count, err := g.counter.CountOnDay(ctx, userID, day)
		if err != nil {
			return warnings, fmt.Errorf("unable to verify daily trade count: %w", err)
		}
		if count >= g.limits.MaxDailyTrades {
			warnings = append(warnings, Warning{
				Kind:    WarningOvertrading,
				Message: fmt.Sprintf("daily limit of %d trades reached (%d already logged that day)",
					g.limits.MaxDailyTrades, count),
			})
		}
	}

	return warnings, nil
}
