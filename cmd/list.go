package cmd

import (
	"fmt"

	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var listReveal bool

func init() {
	listCmd.Flags().BoolVarP(&listReveal, "reveal", "r", false, "print passwords as well as usernames")
}

func resetListCommandState() {
	listReveal = false
}

var listCmd = &cobra.Command{
	Use:   "list [account...]",
	Short: "List the accounts in a vault",
	Long: `Decrypts the vault and prints its accounts in the order they were added.

Without arguments every account is listed. Passwords are only printed with
--reveal. The vault is never re-encrypted by this command.

Examples:
  fmp list
  fmp list --vault work
  fmp list --reveal github`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")
		spinner, cleanup := startSpinner("Decrypting vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.List(commandContext(cmd), env, workflows.ListOptions{
			Vault:    vaultName,
			Reveal:   listReveal,
			Accounts: args,
		})
		if err != nil {
			return fail(spinner, err)
		}
		defer result.Destroy()

		spinner.Stop()
		if len(result.Accounts) == 0 {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " " + ui.Vault.Sprint(result.Vault) + " has no accounts" +
				"\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fmp add <account>") + " to add one"
			return nil
		}

		for _, a := range result.Accounts {
			fmt.Printf("%s\n", ui.Account.Sprint(a.Name))
			fmt.Printf("  username: %s\n", a.Username)
			if a.Password != nil {
				fmt.Print("  password: ")
				if err := printSecret(a.Password); err != nil {
					return err
				}
			}
		}
		return nil
	},
}
