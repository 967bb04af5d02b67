package cmd

import (
	"github.com/PolarWolf314/fmp/internal/configs"
	"github.com/spf13/cobra"
)

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fmp configuration",
	Long: `Provides commands for managing the fmp config file.

The config file holds the encryption backend, where vaults are kept and the
registry of vaults with their recipients. Every key can be overridden with
an FMP_* environment variable, for example FMP_DATA_DIR.

Examples:
  # Write a config file for the in-process OpenPGP backend
  fmp config init --backend openpgp --keyring-file ~/keys.asc

  # Show the resolved configuration
  fmp config show`,
}

func init() {
	ConfigCmd.AddCommand(configInitCmd, configShowCmd)
}

// resolveConfigPath returns --config, $FMP_CONFIG or the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return configs.DefaultPath()
}
