package cmd

import (
	"fmt"
	"strings"

	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/utils"
	"github.com/PolarWolf314/fmp/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	cleanForce  bool
	cleanDryRun bool
)

func init() {
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "skip confirmation prompt")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "show what would be removed without making changes")
}

func resetCleanCommandState() {
	cleanForce = false
	cleanDryRun = false
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Purge plaintext left behind by interrupted sessions",
	Long: `Overwrites and removes decrypted session trees left in the work
directory by a session that never finished, for example after a crash or
a SIGKILL.

Trees whose vault is open in another session are skipped. Lock files
left by a session that no longer runs are removed.

Use --dry-run to preview what would be removed.
Use --force to skip the confirmation prompt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting clean command")

		env, err := setupEnv()
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		preview, err := workflows.Clean(commandContext(cmd), env, workflows.CleanOptions{DryRun: true})
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		if len(preview.Busy) > 0 {
			fmt.Println(ui.Warning.Sprint("⚠") + " Skipping vaults open in another session:")
			fmt.Print(utils.FormatNames(preview.Busy, ui.Vault))
		}

		leftover := len(preview.Stale) + len(preview.Orphaned)
		if leftover == 0 && len(preview.StaleLocks) == 0 {
			fmt.Println(ui.Success.Sprint("✓") + " No plaintext left behind. Nothing to clean.")
			return nil
		}

		if cleanDryRun {
			fmt.Printf("[dry-run] Would purge %d session tree(s):\n", leftover)
		} else {
			fmt.Printf("Found %d session tree(s):\n\n", leftover)
		}
		if leftover > 0 {
			printCleanTable(preview.Stale, preview.Orphaned, env.Settings.WorkDir)
		}
		if len(preview.StaleLocks) > 0 {
			fmt.Println("\nStale locks from sessions that no longer run:")
			fmt.Print(utils.FormatNames(preview.StaleLocks, ui.Vault))
		}

		if cleanDryRun {
			fmt.Println("\nNo changes made.")
			return nil
		}

		if !cleanForce {
			fmt.Println("\nThis will overwrite and delete the decrypted files listed above.")
			fmt.Println()
			if !confirmCleanAction() {
				fmt.Println("Aborted.")
				return nil
			}
		}

		result, err := workflows.Clean(commandContext(cmd), env, workflows.CleanOptions{})
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		fmt.Printf("%s Purged %d session tree(s), overwrote %d file(s)\n",
			ui.Success.Sprint("✓"), len(result.Stale)+len(result.Orphaned), result.Overwritten)
		if len(result.StaleLocks) > 0 {
			fmt.Printf("%s Removed %d stale lock(s)\n", ui.Success.Sprint("✓"), len(result.StaleLocks))
		}
		return nil
	},
}

// printCleanTable prints the trees that would be purged.
func printCleanTable(stale, orphaned []string, workDir string) {
	fmt.Printf("  %-24s  %s\n", "VAULT", "STATE")
	for _, name := range stale {
		fmt.Printf("  %-24s  %s\n", name, "stale")
	}
	for _, name := range orphaned {
		fmt.Printf("  %-24s  %s\n", name, "orphaned (no vault file)")
	}
	fmt.Printf("\n  in %s\n", ui.Path.Sprint(workDir))
}

// confirmCleanAction prompts the user to confirm the clean operation.
func confirmCleanAction() bool {
	response, err := readLine("Do you want to continue? [y/N]: ")
	if err != nil {
		Logger.Errorf("Failed to read response: %v", err)
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

