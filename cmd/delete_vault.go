package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var deleteVaultWithBackup bool

func init() {
	deleteVaultCmd.Flags().BoolVar(&deleteVaultWithBackup, "with-backup", false, "also delete the vault's backup")
}

func resetDeleteVaultCommandState() {
	deleteVaultWithBackup = false
}

var deleteVaultCmd = &cobra.Command{
	Use:   "delete-vault <name>",
	Short: "Delete a vault",
	Long: `Deletes a vault file and removes it from the config file.

The backup is kept unless --with-backup is given, so a deleted vault can
still be brought back with 'fmp restore'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting delete-vault command for %s", args[0])
		spinner, cleanup := startSpinner("Deleting vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.DeleteVault(commandContext(cmd), env, workflows.DeleteVaultOptions{
			Name:       args[0],
			WithBackup: deleteVaultWithBackup,
		})
		if err != nil {
			return fail(spinner, err)
		}

		msg := ui.Success.Sprint("✓") + " Deleted " + ui.Vault.Sprint(result.Vault)
		if !deleteVaultWithBackup {
			msg += " " + ui.Muted.Sprint("backup kept")
		}
		spinner.FinalMSG = msg
		return nil
	},
}
