package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// Trade is one stock trade. ExitPrice and ExitDate are both set or both nil;
// NetPnL is nil exactly when the trade is still open.
type Trade struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              uuid.UUID  `json:"userId"`
	Ticker              string     `json:"ticker"`
	Direction           Direction  `json:"direction"`
	EntryDate           time.Time  `json:"entryDate"`
	ExitDate            *time.Time `json:"exitDate,omitempty"`
	EntryPrice          float64    `json:"entryPrice"`
	ExitPrice           *float64   `json:"exitPrice,omitempty"`
	Quantity            int        `json:"quantity"`
	Commissions         float64    `json:"commissions"`
	GrossPnL            *float64   `json:"grossPnl,omitempty"`
	NetPnL              *float64   `json:"netPnl,omitempty"`
	ReturnPercent       *float64   `json:"returnPercent,omitempty"`
	ActualRR            *float64   `json:"actualRr,omitempty"`
	HoldDurationMinutes *int       `json:"holdDurationMinutes,omitempty"`
	DayOfWeek           *int       `json:"dayOfWeek,omitempty"`
	HourOfDay           *int       `json:"hourOfDay,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
	ScreenshotURL       *string    `json:"screenshotUrl,omitempty"`
	ImportedFromCSV     bool       `json:"importedFromCsv"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`

	// Journals are resolved once at the data-access boundary: at most one of each.
	Pre          *PreTradeJournal  `json:"preTradeJournal,omitempty"`
	Post         *PostTradeJournal `json:"postTradeJournal,omitempty"`
	StrategyName *string           `json:"strategyName,omitempty"`
}

func (t *Trade) IsClosed() bool {
	return t.NetPnL != nil
}

// IsJournaled reports whether both the pre- and post-trade journal exist.
func (t *Trade) IsJournaled() bool {
	return t.Pre != nil && t.Post != nil
}

// PnL returns the net P&L, treating an open trade as zero.
func (t *Trade) PnL() float64 {
	if t.NetPnL == nil {
		return 0
	}
	return *t.NetPnL
}

// TradeInput is the writable part of a trade, as posted by clients or produced by CSV import.
type TradeInput struct {
	Ticker          string     `json:"ticker"`
	Direction       Direction  `json:"direction"`
	EntryDate       time.Time  `json:"entryDate"`
	ExitDate        *time.Time `json:"exitDate,omitempty"`
	EntryPrice      float64    `json:"entryPrice"`
	ExitPrice       *float64   `json:"exitPrice,omitempty"`
	Quantity        int        `json:"quantity"`
	Commissions     float64    `json:"commissions"`
	Notes           *string    `json:"notes,omitempty"`
	ScreenshotURL   *string    `json:"screenshotUrl,omitempty"`
	ImportedFromCSV bool       `json:"-"`
}

// Normalize upper-cases and trims the ticker.
func (in *TradeInput) Normalize() {
	in.Ticker = strings.ToUpper(strings.TrimSpace(in.Ticker))
}

func (in *TradeInput) Validate() error {
	var errs ValidationErrors

	switch {
	case in.Ticker == "":
		errs.Add("ticker", "Ticker is required")
	case len(in.Ticker) > 10:
		errs.Add("ticker", "Ticker must be 10 characters or less")
	}
	if !in.Direction.Valid() {
		errs.Add("direction", `Direction must be "long" or "short"`)
	}
	if in.EntryDate.IsZero() {
		errs.Add("entryDate", "Entry date is required")
	}
	if in.EntryPrice <= 0 {
		errs.Add("entryPrice", "Entry price must be positive")
	}
	if in.ExitPrice != nil && *in.ExitPrice <= 0 {
		errs.Add("exitPrice", "Exit price must be positive")
	}
	if in.Quantity <= 0 {
		errs.Add("quantity", "Quantity must be positive")
	}
	if in.Commissions < 0 {
		errs.Add("commissions", "Commissions cannot be negative")
	}
	if in.ExitDate != nil && in.ExitPrice == nil {
		errs.Add("exitPrice", "Exit price required when exit date is provided")
	}
	if in.ExitPrice != nil && in.ExitDate == nil {
		errs.Add("exitDate", "Exit date required when exit price is provided")
	}
	if in.ExitDate != nil && !in.EntryDate.IsZero() && in.ExitDate.Before(in.EntryDate) {
		errs.Add("exitDate", "Exit date cannot be before entry date")
	}

	return errs.OrNil()
}

// TradeFilter narrows trade listings. Zero values mean "no filter".
type TradeFilter struct {
	Ticker     string
	Direction  Direction
	StrategyID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	ClosedOnly bool
	Limit      int
	Offset     int
}
