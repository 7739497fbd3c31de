// csvprofile profiles a CSV file from the command line using the same
// single-pass engine as the upload server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/csvstats/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	formatFlag     string
	delimiterFlag  string
	lazyQuotesFlag bool
	trimSpaceFlag  bool
	noProgressFlag bool
	logLevelFlag   string
)

func main() {
	// .env is optional for the CLI; it only seeds LOG_LEVEL and PROFILE_* defaults
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "csvprofile",
	Short:         "Profile the columns of a CSV file",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// stdout carries the report, so logs go to stderr
		slog.SetDefault(logging.New(os.Stderr, logLevelFlag, "text"))
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|->",
	Short: "Analyze a CSV file and print per-column statistics",
	Long: `Analyze streams a CSV file once and reports, per column, its inferred
type (numeric or categorical), min/max/sum/average for numeric columns and
the ten most frequent values.

Use "-" to read from stdin.

Examples:
  csvprofile analyze sales.csv
  csvprofile analyze --format json sales.csv
  cat data.tsv | csvprofile analyze --delimiter '\t' -`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")

	analyzeCmd.Flags().StringVarP(&formatFlag, "format", "f", "table", "Output format (table, json)")
	analyzeCmd.Flags().StringVarP(&delimiterFlag, "delimiter", "d", envOr("PROFILE_DELIMITER", ","), `Field delimiter (single character, '\t' for tab)`)
	analyzeCmd.Flags().BoolVar(&lazyQuotesFlag, "lazy-quotes", envOr("PROFILE_LAZY_QUOTES", "true") == "true", "Tolerate stray quotes in unquoted fields")
	analyzeCmd.Flags().BoolVar(&trimSpaceFlag, "trim-leading-space", false, "Ignore leading white space in fields")
	analyzeCmd.Flags().BoolVar(&noProgressFlag, "no-progress", false, "Disable the progress bar")

	rootCmd.AddCommand(analyzeCmd)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
