package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/fmp/internal/audit"
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logAll       bool
	logOperation string
	logSince     string
	logUntil     string
	logOneline   bool
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().BoolVar(&logAll, "all", false, "show entries for every vault, ignoring --vault")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logAll = false
	logOperation = ""
	logSince = ""
	logUntil = ""
	logOneline = false
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log of vault operations.

The log records which operation touched which vault and account, and when.
It never records usernames or passwords. Entries for every vault are shown
unless --vault is given.

Examples:
  fmp log                              # View full log
  fmp log -n 10                        # Last 10 entries
  fmp log --reverse                    # Most recent first
  fmp log --vault work                 # Filter by vault
  fmp log --operation add,delete       # Filter by operation
  fmp log --since 2024-01-01           # Filter by date
  fmp log --json                       # JSON output`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	spinner, cleanup := startSpinner("Loading audit log...", verbose)
	defer cleanup()

	env, err := setupEnv()
	if err != nil {
		return fail(spinner, err)
	}

	opts := workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		Operations: logOperation,
		Since:      logSince,
		Until:      logUntil,
	}
	if !logAll {
		opts.Vault = vaultName
	}

	result, err := workflows.Log(commandContext(cmd), env, opts)
	if err != nil {
		return fail(spinner, err)
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	spinner.Stop()
	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Println(ui.Info.Sprint("ℹ") + " No audit log entries found.")
		} else {
			fmt.Println(ui.Info.Sprint("ℹ") + " No audit log entries found matching the filters.")
		}
		return nil
	}

	if logJSON {
		return outputLogJSON(result.Entries)
	}
	if logOneline {
		outputLogOneline(result.Entries)
		return nil
	}
	outputLogDefault(result.Entries)
	return nil
}

func outputLogJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputLogOneline(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%s %s %s %s\n", workflows.FormatDateTime(e.Time), e.Vault, e.Operation, workflows.FormatDetails(e))
	}
}

func outputLogDefault(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%-19s  %-16s  %-16s  %s\n",
			workflows.FormatDateTime(e.Time), e.Vault, e.Operation, workflows.FormatDetails(e))
	}
}
