package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	createVaultRecipient string
	createVaultDefault   bool
)

func init() {
	createVaultCmd.Flags().StringVarP(&createVaultRecipient, "recipient", "R", "", "key the vault is encrypted to (e-mail, name or key id)")
	createVaultCmd.Flags().BoolVar(&createVaultDefault, "default", false, "make this the default vault")
	_ = createVaultCmd.MarkFlagRequired("recipient")
}

func resetCreateVaultCommandState() {
	createVaultRecipient = ""
	createVaultDefault = false
}

var createVaultCmd = &cobra.Command{
	Use:   "create-vault <name>",
	Short: "Create an empty vault",
	Long: `Creates an empty vault encrypted to the given recipient and registers it
in the config file. The first vault created becomes the default vault.

Examples:
  fmp create-vault personal --recipient alice@example.com
  fmp create-vault work --recipient 0xDEADBEEF --default`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting create-vault command for %s", args[0])
		spinner, cleanup := startSpinner("Creating vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.CreateVault(commandContext(cmd), env, workflows.CreateVaultOptions{
			Name:       args[0],
			Recipient:  createVaultRecipient,
			SetDefault: createVaultDefault,
		})
		if err != nil {
			return fail(spinner, err)
		}

		msg := ui.Success.Sprint("✓") + " Created " + ui.Vault.Sprint(result.Vault) +
			" for " + ui.Highlight.Sprint(result.Recipient) +
			"\n  " + ui.Path.Sprint(result.Path)
		if result.Default {
			msg += "\n" + ui.Info.Sprint("→") + " " + ui.Vault.Sprint(result.Vault) + " is now the default vault"
		}
		spinner.FinalMSG = msg
		return nil
	},
}
