package cmd

import (
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var exportOutputPath string

func init() {
	exportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "output path (default: <vault>-YYYY-MM-DD.tar.gz.gpg)")
}

// resetExportCommandState resets the export command's global state for testing.
func resetExportCommandState() {
	exportOutputPath = ""
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy an encrypted vault out for safekeeping",
	Long: `Copies the encrypted vault file to another location.

The export is the vault itself: it stays encrypted to the vault's recipient
and can only be read with that private key. Bring it back with
'fmp import'.

Use -o/--output to specify a custom output path.
Default filename includes today's date: <vault>-YYYY-MM-DD.tar.gz.gpg

Examples:
  # Export the default vault
  fmp export

  # Export another vault to a custom path
  fmp export --vault work -o /backups/work.tar.gz.gpg`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export command")
		spinner, cleanup := startSpinner("Exporting vault...", verbose)
		defer cleanup()

		env, err := setupEnv()
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Export(commandContext(cmd), env, workflows.ExportOptions{
			Vault:      vaultName,
			OutputPath: exportOutputPath,
		})
		if err != nil {
			return fail(spinner, err)
		}
		Logger.Infof("Exported %s to %s", result.Vault, result.OutputPath)

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Exported " + ui.Vault.Sprint(result.Vault) +
			" to " + ui.Path.Sprint(result.OutputPath)
		return nil
	},
}
