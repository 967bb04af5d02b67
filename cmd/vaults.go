package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	vaultsDefault string
	vaultsJSON    bool
)

func init() {
	vaultsCmd.Flags().StringVar(&vaultsDefault, "default", "", "make the named vault the default")
	vaultsCmd.Flags().BoolVar(&vaultsJSON, "json", false, "output in JSON format")
}

func resetVaultsCommandState() {
	vaultsDefault = ""
	vaultsJSON = false
}

var vaultsCmd = &cobra.Command{
	Use:   "vaults",
	Short: "List vaults or pick the default one",
	Long: `Lists every vault found on disk or in the config file, with its
recipient, whether a backup exists and whether it requires a one-time
code.

Examples:
  fmp vaults
  fmp vaults --default work
  fmp vaults --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting vaults command")
		env, err := setupEnv()
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}

		if vaultsDefault != "" {
			if err := workflows.SelectDefault(env, vaultsDefault); err != nil {
				fmt.Println(formatError(err))
				return &reportedError{err: err}
			}
			fmt.Println(ui.Success.Sprint("✓") + " " + ui.Vault.Sprint(vaultsDefault) + " is now the default vault")
			return nil
		}

		infos, err := workflows.ListVaults(env)
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		Logger.Debugf("Found %d vault(s)", len(infos))

		if vaultsJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(infos)
		}

		if len(infos) == 0 {
			fmt.Println(ui.Info.Sprint("ℹ") + " No vaults yet")
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fmp create-vault <name> --recipient <key>") + " to create one")
			return nil
		}

		for _, info := range infos {
			marker := " "
			if info.Default {
				marker = ui.Success.Sprint("*")
			}
			line := fmt.Sprintf("%s %s", marker, ui.Vault.Sprint(info.Name))
			if info.Recipient != "" {
				line += " " + ui.Highlight.Sprint(info.Recipient)
			} else {
				line += " " + ui.Warning.Sprint("no recipient")
			}
			switch {
			case !info.OnDisk:
				line += " " + ui.Error.Sprint("missing")
			case info.HasBackup:
				line += " " + ui.Muted.Sprint("backup")
			}
			if info.TwoFactor {
				line += " " + ui.Muted.Sprint("2fa")
			}
			fmt.Println(line)
		}
		return nil
	},
}
