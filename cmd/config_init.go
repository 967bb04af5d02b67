package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/fmp/internal/configs"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/utils"

	"github.com/spf13/cobra"
)

var (
	configInitBackend     string
	configInitKeyringFile string
	configInitGPGBinary   string
	configInitDataDir     string
	configInitOSKeyring   bool
	configInitForce       bool
)

func init() {
	configInitCmd.Flags().StringVar(&configInitBackend, "backend", configs.BackendGPG, "encryption backend (gpg or openpgp)")
	configInitCmd.Flags().StringVar(&configInitKeyringFile, "keyring-file", "", "armored keyring for the openpgp backend")
	configInitCmd.Flags().StringVar(&configInitGPGBinary, "gpg-binary", "", "gpg executable for the gpg backend")
	configInitCmd.Flags().StringVar(&configInitDataDir, "data-dir", "", "where vaults and the audit log are kept")
	configInitCmd.Flags().BoolVar(&configInitOSKeyring, "use-os-keyring", false, "read key passphrases from the OS keyring")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite settings in an existing config file")
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitBackend = configs.BackendGPG
	configInitKeyringFile = ""
	configInitGPGBinary = ""
	configInitDataDir = ""
	configInitOSKeyring = false
	configInitForce = false
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file",
	Long: `Writes the config file with the given settings.

An existing file is left alone unless --force is given; its vault registry
is always kept.

Examples:
  fmp config init
  fmp config init --backend openpgp --keyring-file ~/keys.asc
  fmp config init --data-dir ~/Sync/fmp --use-os-keyring`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")

		path, err := resolveConfigPath()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to find config path: %v", err)
		}

		exists, err := utils.FileExists(path)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to check config file: %v", err)
		}
		if exists && !configInitForce {
			fmt.Println(ui.Warning.Sprint("⚠") + " A config file already exists at " + ui.Path.Sprint(path))
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fmp config init --force") + " to overwrite its settings")
			return nil
		}

		cfg, err := configs.LoadFile(path)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load config: %v", err)
		}
		Logger.Debugf("Keeping %d registered vault(s)", len(cfg.Vaults))

		cfg.Backend = configInitBackend
		cfg.GPGBinary = configInitGPGBinary
		cfg.UseOSKeyring = configInitOSKeyring
		if configInitKeyringFile != "" {
			if cfg.KeyringFile, err = filepath.Abs(configInitKeyringFile); err != nil {
				return Logger.ErrorfAndReturn("Failed to resolve keyring path: %v", err)
			}
		}
		if configInitDataDir != "" {
			if cfg.DataDir, err = filepath.Abs(configInitDataDir); err != nil {
				return Logger.ErrorfAndReturn("Failed to resolve data directory: %v", err)
			}
		}

		if err := cfg.Validate(); err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("%w: %w", kerrors.ErrIO, err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Wrote " + ui.Path.Sprint(path))
		if len(cfg.Vaults) == 0 {
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("fmp create-vault <name> --recipient <key>") + " to create your first vault")
		}
		return nil
	},
}
