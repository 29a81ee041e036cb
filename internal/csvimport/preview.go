package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kjannette/mindful-trader/internal/models"
)

type PreviewRow struct {
	Line   int               `json:"line"`
	Trade  models.TradeInput `json:"trade"`
	Valid  bool              `json:"valid"`
	Errors []string          `json:"errors,omitempty"`
}

type Preview struct {
	Headers      []string     `json:"headers"`
	Mapping      Mapping      `json:"mapping"`
	Rows         []PreviewRow `json:"rows"`
	ValidCount   int          `json:"validCount"`
	InvalidCount int          `json:"invalidCount"`
}

// ValidTrades returns the inputs of rows that passed validation.
func (p *Preview) ValidTrades() []models.TradeInput {
	out := make([]models.TradeInput, 0, p.ValidCount)
	for _, r := range p.Rows {
		if r.Valid {
			out = append(out, r.Trade)
		}
	}
	return out
}

// ValidateRow reports every problem with a mapped trade as a readable message.
func ValidateRow(in models.TradeInput) []string {
	err := in.Validate()
	if err == nil {
		return nil
	}
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fe.Message
		}
		return msgs
	}
	return []string{err.Error()}
}

// BuildPreview reads a CSV, applies the mapping (auto-detected when nil) and
// validates every row without touching storage.
func BuildPreview(r io.Reader, mapping Mapping, loc *time.Location) (*Preview, error) {
	headers, rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	if len(mapping) == 0 {
		mapping = AutoDetectMapping(headers)
	}
	if err := mapping.Validate(headers); err != nil {
		return nil, fmt.Errorf("column mapping: %w", err)
	}

	p := &Preview{Headers: headers, Mapping: mapping, Rows: make([]PreviewRow, 0, len(rows))}
	for _, row := range rows {
		in, convErr := MapRow(row, mapping, loc)
		pr := PreviewRow{Line: row.Line, Trade: in}
		if convErr != nil {
			pr.Errors = append(pr.Errors, convErr.Error())
		}
		pr.Errors = append(pr.Errors, ValidateRow(in)...)
		pr.Valid = len(pr.Errors) == 0
		if pr.Valid {
			p.ValidCount++
		} else {
			p.InvalidCount++
		}
		p.Rows = append(p.Rows, pr)
	}
	return p, nil
}

// TradeCreator persists one trade for a user.
type TradeCreator interface {
	CreateTrade(ctx context.Context, userID uuid.UUID, in models.TradeInput) (*models.Trade, error)
}

type ImportedTrade struct {
	Ticker string    `json:"ticker"`
	ID     uuid.UUID `json:"id"`
}

type FailedTrade struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

type ImportResult struct {
	Imported   int             `json:"imported"`
	Failed     int             `json:"failed"`
	Successful []ImportedTrade `json:"successful"`
	Failures   []FailedTrade   `json:"failures"`
}

// Import validates and stores each trade independently. A failing row never
// stops the rest; the context is checked between rows. On cancellation the
// result still lists the rows stored so far.
func Import(ctx context.Context, store TradeCreator, userID uuid.UUID, trades []models.TradeInput) (res ImportResult, err error) {
	res = ImportResult{Successful: []ImportedTrade{}, Failures: []FailedTrade{}}
	defer func() {
		res.Imported, res.Failed = len(res.Successful), len(res.Failures)
	}()

	for _, in := range trades {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		in.Normalize()
		in.ImportedFromCSV = true

		if msgs := ValidateRow(in); len(msgs) > 0 {
			res.Failures = append(res.Failures, FailedTrade{Ticker: in.Ticker, Error: msgs[0]})
			continue
		}
		t, err := store.CreateTrade(ctx, userID, in)
		if err != nil {
			res.Failures = append(res.Failures, FailedTrade{Ticker: in.Ticker, Error: err.Error()})
			continue
		}
		res.Successful = append(res.Successful, ImportedTrade{Ticker: t.Ticker, ID: t.ID})
	}
	return res, nil
}
