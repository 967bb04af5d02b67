package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var changeRecipientCmd = &cobra.Command{
	Use:   "change-recipient <recipient>",
	Short: "Re-encrypt a vault to another key",
	Long: `Decrypts the vault with the current key and re-encrypts it to the new
recipient. If the new key is unknown the vault is left as it was.

Examples:
  fmp change-recipient bob@example.com
  fmp change-recipient --vault work 0xDEADBEEF`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting change-recipient command")
		spinner, cleanup := startSpinner("Re-encrypting vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.ChangeRecipient(commandContext(cmd), env, workflows.ChangeRecipientOptions{
			Vault:     vaultName,
			Recipient: args[0],
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " " + ui.Vault.Sprint(result.Vault) +
			" is now encrypted to " + ui.Highlight.Sprint(result.Recipient)
		return nil
	},
}
