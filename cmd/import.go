package cmd

import (
	"fmt"

	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	importName      string
	importRecipient string
)

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "name of the new vault")
	importCmd.Flags().StringVarP(&importRecipient, "recipient", "R", "", "key the file is encrypted to")
	_ = importCmd.MarkFlagRequired("name")
	_ = importCmd.MarkFlagRequired("recipient")
}

// resetImportCommandState resets the import command's global state for testing.
func resetImportCommandState() {
	importName = ""
	importRecipient = ""
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an exported vault",
	Long: `Checks that an encrypted vault file decrypts to a well-formed vault,
then copies it into the vault directory under a new name and registers it.

The file is never re-encrypted, so it must already be encrypted to the
given recipient.

Examples:
  fmp import personal-2024-01-01.tar.gz.gpg --name personal --recipient alice@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import command for %s", args[0])
		spinner, cleanup := startSpinner("Importing vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Import(commandContext(cmd), env, workflows.ImportOptions{
			Path:      args[0],
			Name:      importName,
			Recipient: importRecipient,
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Imported " + ui.Vault.Sprint(result.Vault) +
			" " + ui.Muted.Sprint(fmt.Sprintf("%d account(s)", result.Accounts))
		return nil
	},
}
