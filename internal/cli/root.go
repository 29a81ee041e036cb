// Package cli provides the offline command-line interface: reports and import
// previews computed from CSV files, without a database.
package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kjannette/mindful-trader/internal/analytics"
)

const Version = "0.3.0"

// App holds the CLI dependencies.
type App struct {
	Logger zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{Logger: logger, Now: time.Now}

	rootCmd := &cobra.Command{
		Use:   "mindful",
		Short: "Mindful Trader - offline trading journal analytics",
		Long: `Mindful Trader computes portfolio, time-of-day, market-context and
psychology analytics from a canonical trade export, and previews broker CSV
files before they are imported.

Use 'mindful help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("tz", "America/Los_Angeles", "trader timezone for days and hours")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newReportCmd(app))
	rootCmd.AddCommand(newImportPreviewCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
				return
			}
			output.Printf("mindful %s\n", Version)
		},
	}
}

func location(cmd *cobra.Command) (*time.Location, error) {
	tz, _ := cmd.Flags().GetString("tz")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}

// sectorVocabulary loads --sectors when given, the built-in list otherwise.
func sectorVocabulary(cmd *cobra.Command) (analytics.SectorVocabulary, error) {
	path, _ := cmd.Flags().GetString("sectors")
	return analytics.LoadSectorVocabulary(path)
}
