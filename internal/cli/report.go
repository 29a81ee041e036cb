package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kjannette/mindful-trader/internal/analytics"
	"github.com/kjannette/mindful-trader/internal/csvimport"
	"github.com/kjannette/mindful-trader/internal/logging"
	"github.com/kjannette/mindful-trader/internal/models"
)

// ReportOptions mirrors the server's analytics thresholds.
type ReportOptions struct {
	AvoidMinTrades     int
	AvoidMaxWinRate    float64
	BestWorstMinTrades int
	Limit              int
	Vocabulary         analytics.SectorVocabulary
	// Weekly adds a weekly comparison ending at Now.
	Weekly bool
	Now    time.Time
}

type Report struct {
	Trades        int                             `json:"trades"`
	Portfolio     analytics.PortfolioMetrics      `json:"portfolio"`
	AvoidPatterns []analytics.AvoidPattern        `json:"avoidPatterns"`
	Times         analytics.BestWorstTimes        `json:"times"`
	Market        analytics.MarketCorrelation     `json:"market"`
	Psychology    analytics.PsychologyMetrics     `json:"psychology"`
	Strategies    []analytics.StrategyPerformance `json:"strategies"`
	Weekly        *analytics.WeeklyReport         `json:"weekly,omitempty"`
}

// BuildReport runs every calculator over trades. Trades exported without
// day/hour slots get them from their entry time in loc.
func BuildReport(trades []models.Trade, loc *time.Location, opts ReportOptions) Report {
	for i := range trades {
		t := &trades[i]
		if t.DayOfWeek == nil || t.HourOfDay == nil {
			entry := t.EntryDate.In(loc)
			day, hour := int(entry.Weekday()), entry.Hour()
			t.DayOfWeek, t.HourOfDay = &day, &hour
		}
	}

	hourly := analytics.BuildHeatmap(trades, analytics.ByHour)
	r := Report{
		Trades:        len(trades),
		Portfolio:     analytics.ComputePortfolio(trades),
		AvoidPatterns: analytics.DetectAvoidPatterns(hourly, opts.AvoidMinTrades, opts.AvoidMaxWinRate),
		Times:         analytics.RankTimes(hourly, opts.BestWorstMinTrades, opts.Limit),
		Market:        analytics.NewMarketCorrelator(opts.Vocabulary).Correlate(trades, analytics.GroupByBoth),
		Psychology:    analytics.ComputePsychology(trades),
		Strategies:    analytics.StrategyBreakdown(trades),
	}
	if opts.Weekly {
		w := analytics.BuildWeeklyReport(trades, opts.Now)
		r.Weekly = &w
	}
	return r
}

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze a canonical trade export",
		Long: `Read a CSV produced by GET /v1/trades/export.csv and print portfolio
metrics, best and worst trading times, market context and psychology.`,
		Example: "  mindful report --csv trades.csv --tz America/New_York --weekly",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("csv")
			loc, err := location(cmd)
			if err != nil {
				return err
			}
			vocab, err := sectorVocabulary(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			trades, err := csvimport.ReadCanonical(f)
			if err != nil {
				return err
			}

			opts := ReportOptions{Vocabulary: vocab, Now: app.Now().In(loc)}
			opts.AvoidMinTrades, _ = cmd.Flags().GetInt("min-trades")
			opts.AvoidMaxWinRate, _ = cmd.Flags().GetFloat64("max-win-rate")
			opts.BestWorstMinTrades, _ = cmd.Flags().GetInt("best-worst-min")
			opts.Limit, _ = cmd.Flags().GetInt("limit")
			opts.Weekly, _ = cmd.Flags().GetBool("weekly")

			start := time.Now()
			report := BuildReport(trades, loc, opts)
			logging.LogComputation(app.Logger, "report", len(trades), time.Since(start))

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(report)
			}
			printReport(output, report)
			return nil
		},
	}

	cmd.Flags().String("csv", "", "canonical trade export (required)")
	cmd.Flags().Int("min-trades", analytics.DefaultAvoidMinTrades, "minimum trades before a time slot can be flagged")
	cmd.Flags().Float64("max-win-rate", analytics.DefaultAvoidMaxWinRate, "win rate below which a slot is flagged")
	cmd.Flags().Int("best-worst-min", analytics.DefaultBestWorstMinTrades, "minimum trades for best/worst ranking")
	cmd.Flags().Int("limit", analytics.DefaultBestWorstLimit, "number of best and worst times")
	cmd.Flags().String("sectors", "", "YAML sector vocabulary (default: built-in)")
	cmd.Flags().Bool("weekly", false, "include a weekly comparison ending now")
	cmd.MarkFlagRequired("csv")

	return cmd
}

func formatProfitFactor(pf analytics.ProfitFactor) string {
	if pf.IsInf() {
		return "inf"
	}
	return fmt.Sprintf("%.2f", float64(pf))
}

func printReport(o *Output, r Report) {
	p := r.Portfolio
	o.Section(fmt.Sprintf("Portfolio (%d closed of %d trades)", p.TotalTrades, r.Trades))
	o.Printf("  Total P&L:     %s\n", FormatPnL(p.TotalPnL))
	o.Printf("  Win rate:      %.1f%%\n", p.WinRate)
	o.Printf("  Profit factor: %s\n", formatProfitFactor(p.ProfitFactor))
	o.Printf("  Expectancy:    %s\n", FormatPnL(p.Expectancy))
	o.Printf("  Avg win/loss:  %s / %s\n", FormatPnL(p.AvgWin), FormatPnL(p.AvgLoss))
	o.Printf("  Streak:        %d\n", p.CurrentStreak)
	o.Printf("  Max drawdown:  %s\n", FormatPnL(p.MaxDrawdown))

	o.Section("Best and worst times")
	table := NewTable(o, "", "Slot", "Trades", "Win rate", "Avg P&L")
	for _, s := range r.Times.BestTimes {
		table.AddRow("best", s.Label, fmt.Sprint(s.TradeCount), fmt.Sprintf("%.1f%%", s.WinRate), FormatPnL(s.AvgPnL))
	}
	for _, s := range r.Times.WorstTimes {
		table.AddRow("worst", s.Label, fmt.Sprint(s.TradeCount), fmt.Sprintf("%.1f%%", s.WinRate), FormatPnL(s.AvgPnL))
	}
	table.Render()
	for _, a := range r.AvoidPatterns {
		o.Printf("  ! %s\n", a.Message)
	}

	o.Section("Market context")
	o.Printf("  Best SPY condition:  %s\n", r.Market.Summary.BestSPYCondition)
	o.Printf("  Worst SPY condition: %s\n", r.Market.Summary.WorstSPYCondition)
	o.Printf("  Best sector:         %s\n", r.Market.Summary.BestSector)
	o.Printf("  Worst sector:        %s\n", r.Market.Summary.WorstSector)

	ps := r.Psychology
	o.Section("Psychology")
	if !ps.HasData {
		o.Println("  No journaled trades yet.")
	} else {
		o.Printf("  Discipline score:  %d/100\n", ps.Score)
		o.Printf("  Rule adherence:    %.1f%%\n", ps.RuleAdherenceRate)
		o.Printf("  FOMO / revenge:    %d / %d\n", ps.FOMOCount, ps.RevengeCount)
		if ps.MostCommonPreEmotion != nil {
			o.Printf("  Common pre-trade:  %s\n", *ps.MostCommonPreEmotion)
		}
	}

	if len(r.Strategies) > 0 {
		o.Section("Strategies")
		table := NewTable(o, "Strategy", "Trades", "Win rate", "P&L", "PF")
		for _, s := range r.Strategies {
			table.AddRow(s.Strategy, fmt.Sprint(s.TradeCount), fmt.Sprintf("%.1f%%", s.WinRate), FormatPnL(s.TotalPnL), formatProfitFactor(s.ProfitFactor))
		}
		table.Render()
	}

	if r.Weekly != nil {
		o.Section(fmt.Sprintf("Week %s to %s", r.Weekly.CurrentWeek.Start, r.Weekly.CurrentWeek.End))
		o.Printf("  %s\n", r.Weekly.Summary)
		for _, in := range r.Weekly.Insights {
			o.Printf("  - %s\n", in)
		}
	}
}
