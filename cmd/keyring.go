package cmd

import (
	"fmt"

	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Store a vault's key passphrase in the OS keyring",
	Long: `Manages the private key passphrase stored in the OS keyring (Keychain,
Secret Service or Credential Manager) for the recipient of a vault.

The stored passphrase is only used when use_os_keyring is set in the config
file and FMP_PASSPHRASE is unset.`,
}

func init() {
	keyringCmd.AddCommand(keyringSaveCmd, keyringDeleteCmd, keyringStatusCmd)
}

var keyringSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Check a passphrase against the vault and store it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keyring save command")
		spinner, cleanup := startSpinner("Checking passphrase...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		var pass *securemem.Secret
		if !stdinIsTerminal() {
			pass, err = readStdinSecret()
		} else {
			pass, err = withPausedSpinner(spinner, func() (*securemem.Secret, error) {
				return promptSecret("Passphrase: ")
			})
		}
		if err != nil {
			return fail(spinner, err)
		}
		defer pass.Destroy()

		result, err := workflows.KeyringSave(commandContext(cmd), env, workflows.KeyringOptions{
			Vault:      vaultName,
			Passphrase: pass,
		})
		if err != nil {
			return fail(spinner, err)
		}

		msg := ui.Success.Sprint("✓") + " Stored the passphrase for " + ui.Highlight.Sprint(result.Recipient)
		if !env.Config.UseOSKeyring {
			msg += "\n" + ui.Info.Sprint("→") + " Set " + ui.Flag.Sprint("use_os_keyring = true") + " in " +
				ui.Path.Sprint(env.ConfigPath) + " to use it"
		}
		spinner.FinalMSG = msg
		return nil
	},
}

var keyringDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a stored passphrase",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keyring delete command")
		env, err := setupEnv()
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		result, err := workflows.KeyringDelete(env, workflows.KeyringOptions{Vault: vaultName})
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		fmt.Println(ui.Success.Sprint("✓") + " Removed the passphrase for " + ui.Highlight.Sprint(result.Recipient))
		return nil
	},
}

var keyringStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a passphrase is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keyring status command")
		env, err := setupEnv()
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		result, err := workflows.KeyringStatus(env, workflows.KeyringOptions{Vault: vaultName})
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		if result.Stored {
			fmt.Println(ui.Success.Sprint("✓") + " A passphrase for " + ui.Highlight.Sprint(result.Recipient) + " is stored")
		} else {
			fmt.Println(ui.Info.Sprint("ℹ") + " No passphrase stored for " + ui.Highlight.Sprint(result.Recipient))
		}
		return nil
	},
}
