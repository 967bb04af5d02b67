package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the vault to its backup file",
	Long: `Copies the encrypted vault byte for byte to <vault>.bak, replacing any
previous backup. Nothing is decrypted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting backup command")
		spinner, cleanup := startSpinner("Backing up vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Backup(commandContext(cmd), env, workflows.BackupOptions{Vault: vaultName})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Backed up " + ui.Vault.Sprint(result.Vault) +
			" to " + ui.Path.Sprint(result.Path)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the vault with its backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting restore command")
		spinner, cleanup := startSpinner("Restoring vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Restore(commandContext(cmd), env, workflows.BackupOptions{Vault: vaultName})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Restored " + ui.Vault.Sprint(result.Vault) + " from its backup"
		return nil
	},
}
