package cmd

import (
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	changePasswordGenerate int
	changePasswordShow     bool
	changePasswordClasses  classFlags
)

func init() {
	changePasswordCmd.Flags().IntVarP(&changePasswordGenerate, "generate", "g", 0, "generate a password of this length instead of reading one")
	changePasswordCmd.Flags().BoolVar(&changePasswordShow, "show", false, "print the generated password")
	changePasswordClasses.register(changePasswordCmd)
}

func resetChangePasswordCommandState() {
	changePasswordGenerate = 0
	changePasswordShow = false
	changePasswordClasses = classFlags{}
}

var changePasswordCmd = &cobra.Command{
	Use:   "change-password <account>",
	Short: "Change the password of an account",
	Long: `Replaces the password of an account, then re-encrypts the vault.

The new password is read from stdin when piped, prompted for twice on a
terminal, or generated with --generate.

Examples:
  fmp change-password github
  fmp change-password github --generate 32 --show`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := args[0]
		Logger.Infof("Starting change-password command for %s", account)
		spinner, cleanup := startSpinner("Changing password...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		source := workflows.PasswordSource{GenerateLength: changePasswordGenerate, Classes: changePasswordClasses.classes()}
		if changePasswordGenerate == 0 {
			pw, err := withPausedSpinner(spinner, func() (*securemem.Secret, error) {
				return readNewPassword(account)
			})
			if err != nil {
				return fail(spinner, err)
			}
			defer pw.Destroy()
			source.Password = pw
		}

		result, err := workflows.ChangePassword(commandContext(cmd), env, workflows.ChangePasswordOptions{
			Vault:          vaultName,
			Account:        account,
			PasswordSource: source,
		})
		if err != nil {
			return fail(spinner, err)
		}
		defer result.Generated.Destroy()

		spinner.Stop()
		if result.Generated != nil && changePasswordShow {
			if err := printSecret(result.Generated); err != nil {
				return err
			}
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Changed the password of " + ui.Account.Sprint(account) +
			" in " + ui.Vault.Sprint(result.Vault) + " " +
			ui.Muted.Sprintf("%.0f bits, %s", result.Entropy, ui.ForRating(result.Rating).Sprint(result.Rating))
		return nil
	},
}
