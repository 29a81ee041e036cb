package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjannette/mindful-trader/internal/csvimport"
)

func newImportPreviewCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-preview",
		Short: "Validate a broker CSV before importing it",
		Long: `Map the columns of a broker CSV onto trade fields and validate every row.
Columns are auto-detected unless --mapping is given as a JSON object, e.g.
'{"ticker":"Symbol","entry_date":"Opened"}'.`,
		Example: "  mindful import-preview --csv fills.csv --tz America/New_York",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("csv")
			loc, err := location(cmd)
			if err != nil {
				return err
			}

			var mapping csvimport.Mapping
			if raw, _ := cmd.Flags().GetString("mapping"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
					return fmt.Errorf("invalid --mapping: %w", err)
				}
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			preview, err := csvimport.BuildPreview(f, mapping, loc)
			if err != nil {
				return err
			}
			app.Logger.Debug().
				Int("valid", preview.ValidCount).
				Int("invalid", preview.InvalidCount).
				Msg("csv preview built")

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(preview)
			}
			printPreview(output, preview)
			return nil
		},
	}

	cmd.Flags().String("csv", "", "broker CSV file (required)")
	cmd.Flags().String("mapping", "", "column mapping as JSON (default: auto-detect)")
	cmd.MarkFlagRequired("csv")

	return cmd
}

func printPreview(o *Output, p *csvimport.Preview) {
	o.Section("Column mapping")
	fields := make([]string, 0, len(p.Mapping))
	for f := range p.Mapping {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		o.Printf("  %-12s <- %s\n", f, p.Mapping[csvimport.Field(f)])
	}

	o.Section(fmt.Sprintf("Rows (%d valid, %d invalid)", p.ValidCount, p.InvalidCount))
	table := NewTable(o, "Line", "Ticker", "Direction", "Entry", "Status")
	for _, r := range p.Rows {
		status := "ok"
		if !r.Valid {
			status = strings.Join(r.Errors, "; ")
		}
		entry := ""
		if !r.Trade.EntryDate.IsZero() {
			entry = r.Trade.EntryDate.Format("2006-01-02 15:04")
		}
		table.AddRow(fmt.Sprint(r.Line), r.Trade.Ticker, string(r.Trade.Direction), entry, status)
	}
	table.Render()
}
