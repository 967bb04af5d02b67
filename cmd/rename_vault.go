package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var renameVaultCmd = &cobra.Command{
	Use:   "rename-vault <name> <new-name>",
	Short: "Rename a vault",
	Long: `Re-seals a vault under a new name. Its registry entry and backup move
along, and default_vault follows the rename.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rename-vault command: %s -> %s", args[0], args[1])
		spinner, cleanup := startSpinner("Renaming vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.RenameVault(commandContext(cmd), env, workflows.RenameVaultOptions{
			Name:    args[0],
			NewName: args[1],
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Renamed " + ui.Vault.Sprint(args[0]) +
			" to " + ui.Vault.Sprint(result.Vault)
		return nil
	},
}
