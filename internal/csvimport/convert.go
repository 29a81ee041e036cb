package csvimport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/mindful-trader/internal/models"
)

// Accepted date layouts, tried in order. Layouts without a zone are read in
// the trader's timezone.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseDecimal accepts broker formatting such as "$1,234.50".
func parseDecimal(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}
	return d, nil
}

func normalizeDirection(s string) models.Direction {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "buy") || strings.Contains(lower, "long"):
		return models.Long
	case strings.Contains(lower, "sell") || strings.Contains(lower, "short"):
		return models.Short
	}
	return models.Direction(s)
}

// MapRow converts one CSV row into a trade input. Conversion problems are
// returned together; unmapped or empty optional fields are left unset.
func MapRow(row Row, m Mapping, loc *time.Location) (models.TradeInput, error) {
	if loc == nil {
		loc = time.UTC
	}
	in := models.TradeInput{ImportedFromCSV: true}
	var errs []error

	get := func(f Field) string {
		col, ok := m[f]
		if !ok {
			return ""
		}
		return row.Values[col]
	}

	in.Ticker = strings.ToUpper(strings.TrimSpace(get(FieldTicker)))
	if v := get(FieldDirection); v != "" {
		in.Direction = normalizeDirection(v)
	}

	if v := get(FieldEntryDate); v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry date: %w", err))
		}
		in.EntryDate = t
	}
	if v := get(FieldExitDate); v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("exit date: %w", err))
		} else {
			in.ExitDate = &t
		}
	}

	if v := get(FieldEntryPrice); v != "" {
		d, err := parseDecimal(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry price: %w", err))
		}
		in.EntryPrice = d.InexactFloat64()
	}
	if v := get(FieldExitPrice); v != "" {
		d, err := parseDecimal(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("exit price: %w", err))
		} else {
			f := d.InexactFloat64()
			in.ExitPrice = &f
		}
	}
	if v := get(FieldQuantity); v != "" {
		d, err := parseDecimal(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("quantity: %w", err))
		case !d.IsInteger():
			errs = append(errs, fmt.Errorf("quantity: %q is not a whole number of shares", v))
		default:
			in.Quantity = int(d.IntPart())
		}
	}
	if v := get(FieldCommissions); v != "" {
		d, err := parseDecimal(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("commissions: %w", err))
		}
		in.Commissions = d.Abs().InexactFloat64()
	}

	return in, errors.Join(errs...)
}
