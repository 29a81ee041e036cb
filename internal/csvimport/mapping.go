// Package csvimport turns broker CSV exports into trades: detect the column
// mapping, convert and validate each row, preview, then import the valid rows.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Field is a trade attribute a CSV column can map to.
type Field string

const (
	FieldTicker      Field = "ticker"
	FieldDirection   Field = "direction"
	FieldEntryDate   Field = "entry_date"
	FieldExitDate    Field = "exit_date"
	FieldEntryPrice  Field = "entry_price"
	FieldExitPrice   Field = "exit_price"
	FieldQuantity    Field = "quantity"
	FieldCommissions Field = "commissions"
)

var Fields = []Field{
	FieldTicker, FieldDirection, FieldEntryDate, FieldExitDate,
	FieldEntryPrice, FieldExitPrice, FieldQuantity, FieldCommissions,
}

// Mapping assigns a CSV header to each trade field it was matched to.
type Mapping map[Field]string

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func detectField(header string) (Field, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	isEntry := containsAny(h, "entry", "open")
	isExit := containsAny(h, "exit", "close")

	switch {
	case containsAny(h, "symbol", "ticker") || h == "sym":
		return FieldTicker, true
	case containsAny(h, "side", "direction", "action"):
		return FieldDirection, true
	case isEntry && strings.Contains(h, "date"):
		return FieldEntryDate, true
	case isExit && strings.Contains(h, "date"):
		return FieldExitDate, true
	case isEntry && strings.Contains(h, "price"):
		return FieldEntryPrice, true
	case isExit && strings.Contains(h, "price"):
		return FieldExitPrice, true
	case containsAny(h, "quantity", "qty", "shares", "size"):
		return FieldQuantity, true
	case containsAny(h, "commission", "fees", "cost"):
		return FieldCommissions, true
	}
	return "", false
}

// AutoDetectMapping matches headers to fields by keyword. Each header takes the
// first rule it satisfies; when several headers hit one field the last one wins.
func AutoDetectMapping(headers []string) Mapping {
	m := make(Mapping)
	for _, h := range headers {
		if f, ok := detectField(h); ok {
			m[f] = h
		}
	}
	return m
}

// Validate checks that the mapping names real headers and covers the required fields.
func (m Mapping) Validate(headers []string) error {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	var problems []string
	for f, h := range m {
		if !known[h] {
			problems = append(problems, fmt.Sprintf("%s maps to unknown column %q", f, h))
		}
	}
	for _, f := range []Field{FieldTicker, FieldDirection, FieldEntryDate, FieldEntryPrice, FieldQuantity} {
		if _, ok := m[f]; !ok {
			problems = append(problems, fmt.Sprintf("no column mapped to %s", f))
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Row is one CSV record keyed by header, with its 1-based line number.
type Row struct {
	Line   int
	Values map[string]string
}

// ReadRows parses a headed CSV. Blank lines are skipped and short records are padded.
func ReadRows(r io.Reader) ([]string, []Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		values := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				values[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, Row{Line: line, Values: values})
	}
	return headers, rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
