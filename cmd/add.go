package cmd

import (
	"fmt"

	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	addUsername string
	addGenerate int
	addShow     bool
	addClasses  classFlags
)

func init() {
	addCmd.Flags().StringVarP(&addUsername, "username", "u", "", "username for the account (prompted if omitted)")
	addCmd.Flags().IntVarP(&addGenerate, "generate", "g", 0, "generate a password of this length instead of reading one")
	addCmd.Flags().BoolVar(&addShow, "show", false, "print the generated password")
	addClasses.register(addCmd)
}

func resetAddCommandState() {
	addUsername = ""
	addGenerate = 0
	addShow = false
	addClasses = classFlags{}
}

var addCmd = &cobra.Command{
	Use:   "add <account>",
	Short: "Add an account to a vault",
	Long: `Adds an account with a username and password, then re-encrypts the vault.

The password is read from stdin when piped, prompted for twice on a
terminal, or generated with --generate.

Examples:
  fmp add github --username octocat
  fmp add github --username octocat --generate 24 --no-symbols
  echo "hunter2" | fmp add github --username octocat`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := args[0]
		Logger.Infof("Starting add command for %s", account)
		spinner, cleanup := startSpinner("Adding account...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		username := addUsername
		if !cmd.Flags().Changed("username") && stdinIsTerminal() {
			username, err = withPausedSpinner(spinner, func() (string, error) {
				return readLine(fmt.Sprintf("Username for %s: ", account))
			})
			if err != nil {
				return fail(spinner, err)
			}
		}

		source := workflows.PasswordSource{GenerateLength: addGenerate, Classes: addClasses.classes()}
		if addGenerate == 0 {
			pw, err := withPausedSpinner(spinner, func() (*securemem.Secret, error) {
				return readNewPassword(account)
			})
			if err != nil {
				return fail(spinner, err)
			}
			defer pw.Destroy()
			source.Password = pw
		}

		result, err := workflows.Add(commandContext(cmd), env, workflows.AddOptions{
			Vault:          vaultName,
			Account:        account,
			Username:       username,
			PasswordSource: source,
		})
		if err != nil {
			return fail(spinner, err)
		}
		defer result.Generated.Destroy()

		spinner.Stop()
		if result.Generated != nil && addShow {
			if err := printSecret(result.Generated); err != nil {
				return err
			}
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Added " + ui.Account.Sprint(account) +
			" to " + ui.Vault.Sprint(result.Vault) + " " +
			ui.Muted.Sprintf("%.0f bits, %s", result.Entropy, ui.ForRating(result.Rating).Sprint(result.Rating))
		return nil
	},
}
