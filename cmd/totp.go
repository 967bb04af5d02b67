package cmd

import (
	"fmt"

	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Require a one-time code to open a vault",
	Long: `Manages two-factor protection of a vault with a time-based one-time
code (TOTP, 30 second steps, 6 digits).

Once enabled, opening, renaming, re-encrypting, restoring or deleting the
vault asks for a code from your authenticator app. Pass it with --otp, or
enter it when prompted on a terminal.

Examples:
  # Enable two-factor and print the enrollment secret
  fmp totp enable --vault personal

  # Remove the requirement again
  fmp totp disable --vault personal --otp 123456`,
}

func init() {
	totpCmd.AddCommand(totpEnableCmd, totpDisableCmd, totpStatusCmd)
}

var totpEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Generate a secret and require codes from now on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting totp enable command")
		spinner, cleanup := startSpinner("Enabling two-factor...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.EnableTOTP(commandContext(cmd), env, workflows.TOTPOptions{Vault: vaultName})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Two-factor enabled for " + ui.Vault.Sprint(result.Vault) +
			"\n  Secret: " + ui.Secret.Sprint(result.Secret) +
			"\n  URI:    " + result.URL +
			"\n" + ui.Warning.Sprint("⚠") + " Add it to your authenticator now; it is not shown again"
		return nil
	},
}

var totpDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Check a code and stop requiring one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting totp disable command")
		spinner, cleanup := startSpinner("Disabling two-factor...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.DisableTOTP(commandContext(cmd), env, workflows.TOTPOptions{Vault: vaultName})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Two-factor disabled for " + ui.Vault.Sprint(result.Vault)
		return nil
	},
}

var totpStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the vault requires a code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting totp status command")
		env, err := setupEnv()
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		result, err := workflows.TOTPStatus(env, workflows.TOTPOptions{Vault: vaultName})
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		if result.Enabled {
			fmt.Println(ui.Success.Sprint("✓") + " " + ui.Vault.Sprint(result.Vault) + " requires a one-time code")
		} else {
			fmt.Println(ui.Info.Sprint("ℹ") + " " + ui.Vault.Sprint(result.Vault) + " does not require a one-time code")
		}
		return nil
	},
}
