package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer   io.Writer
	jsonMode bool
}

func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{writer: cmd.OutOrStdout(), jsonMode: jsonMode}
}

func (o *Output) IsJSON() bool {
	return o.jsonMode
}

func (o *Output) JSON(data any) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (o *Output) Printf(format string, args ...any) {
	fmt.Fprintf(o.writer, format, args...)
}

func (o *Output) Println(args ...any) {
	fmt.Fprintln(o.writer, args...)
}

// Section prints an underlined heading.
func (o *Output) Section(title string) {
	fmt.Fprintf(o.writer, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// Table renders aligned columns.
type Table struct {
	tw *tabwriter.Writer
}

func NewTable(o *Output, headers ...string) *Table {
	t := &Table{tw: tabwriter.NewWriter(o.writer, 0, 0, 2, ' ', 0)}
	t.AddRow(headers...)
	return t
}

func (t *Table) AddRow(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *Table) Render() {
	t.tw.Flush()
}

// FormatPnL renders a signed dollar amount.
func FormatPnL(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}
