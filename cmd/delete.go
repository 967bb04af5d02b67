package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Delete an account from a vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting delete command for %s", args[0])
		spinner, cleanup := startSpinner("Deleting account...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Delete(commandContext(cmd), env, workflows.AccountOptions{
			Vault:   vaultName,
			Account: args[0],
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Deleted " + ui.Account.Sprint(result.Account) +
			" from " + ui.Vault.Sprint(result.Vault)
		return nil
	},
}
