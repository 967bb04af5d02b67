package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var renameAccountCmd = &cobra.Command{
	Use:   "rename-account <account> <new-name>",
	Short: "Rename an account, keeping its position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rename-account command: %s -> %s", args[0], args[1])
		spinner, cleanup := startSpinner("Renaming account...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.RenameAccount(commandContext(cmd), env, workflows.RenameAccountOptions{
			Vault:   vaultName,
			Account: args[0],
			NewName: args[1],
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Renamed " + ui.Account.Sprint(args[0]) +
			" to " + ui.Account.Sprint(result.Account) + " in " + ui.Vault.Sprint(result.Vault)
		return nil
	},
}
