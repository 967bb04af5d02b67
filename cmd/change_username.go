package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var changeUsernameCmd = &cobra.Command{
	Use:   "change-username <account> <username>",
	Short: "Change the username of an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting change-username command for %s", args[0])
		spinner, cleanup := startSpinner("Changing username...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.ChangeUsername(commandContext(cmd), env, workflows.ChangeUsernameOptions{
			Vault:    vaultName,
			Account:  args[0],
			Username: args[1],
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Changed the username of " + ui.Account.Sprint(result.Account) +
			" in " + ui.Vault.Sprint(result.Vault)
		return nil
	},
}
