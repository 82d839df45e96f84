package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = "\n" +
	"  ___ _ __   ___ _ __ ___   __ _  __ _ _ __\n" +
	" / _ \\ '_ \\ / _ \\ '_ ` _ \\ / _` |/ _` | '_ \\\n" +
	"|  __/ | | |  __/ | | | | | (_| | (_| | |_) |\n" +
	" \\___|_| |_|\\___|_| |_| |_|\\__, |\\__,_| .__/\n" +
	"                           |___/      |_|"

var rootCmd = &cobra.Command{
	Use:   "enemgap",
	Short: "ENEM microdata income-gap analysis pipeline",
	Long: asciiLogo + `

enemgap loads the ENEM participant and result microdata CSVs into PostgreSQL
(first run only; existing tables are never reloaded), extracts participants
in the two lowest income brackets, and writes income-gap reports into a
timestamped output directory: row-level CSV, descriptive statistics, and
interactive charts.

Exit Codes:
  0   - Success
  1   - General error
  2   - CLI usage error (invalid arguments or flags)
  3   - Panic or unexpected system error
  10  - Invalid configuration or parameters
  11  - Database connection failed
  12  - Source CSV file not found
  13  - SQL load or extraction query failed
  14  - Participant/result files disagree on row count
  15  - Report output could not be written
  130 - Interrupted (SIGINT/SIGTERM)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for enemgap")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
