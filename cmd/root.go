package cmd

import (
	"fmt"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	logger "github.com/PolarWolf314/fmp/internal/logging"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/workflows"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose    bool
	debug      bool
	vaultName  string
	configPath string
	otpCode    string
	Logger     logger.Logger
)

// commands are the subcommands Register attaches to the root command.
var commands = []*cobra.Command{
	listCmd,
	addCmd,
	deleteCmd,
	changeUsernameCmd,
	changePasswordCmd,
	renameAccountCmd,
	createVaultCmd,
	deleteVaultCmd,
	renameVaultCmd,
	changeRecipientCmd,
	backupCmd,
	restoreCmd,
	vaultsCmd,
	exportCmd,
	importCmd,
	cleanCmd,
	doctorCmd,
	generatePasswordCmd,
	entropyCmd,
	keyringCmd,
	totpCmd,
	logCmd,
	ConfigCmd,
}

// Register installs the persistent flags and every subcommand on root.
func Register(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&vaultName, "vault", "V", "", "vault to operate on (defaults to default_vault)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (defaults to $FMP_CONFIG or the user config dir)")
	root.PersistentFlags().StringVar(&otpCode, "otp", "", "one-time code for a vault with two-factor enabled")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		level := securemem.Init(Logger.Warnf)
		Logger.Debugf("Initializing %s with verbose=%t, debug=%t, memory protection=%s", cmd.Name(), verbose, debug, level)
	}
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", kerrors.ErrUserInput, err)
	})

	root.AddCommand(commands...)
}

// setupEnv loads the configuration and builds the workflow environment.
func setupEnv() (*workflows.Env, error) {
	env, err := workflows.Setup(workflows.SetupOptions{
		ConfigPath: configPath,
		Log:        Logger,
		Prompt:     promptPassphrase,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up: %w", err)
	}
	env.Code = readCode
	return env, nil
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	vaultName = ""
	configPath = ""
	otpCode = ""
	resetListCommandState()
	resetAddCommandState()
	resetChangePasswordCommandState()
	resetCreateVaultCommandState()
	resetDeleteVaultCommandState()
	resetVaultsCommandState()
	resetExportCommandState()
	resetImportCommandState()
	resetCleanCommandState()
	resetDoctorCommandState()
	resetLogCommandState()
	resetGeneratePasswordCommandState()
	resetConfigInitState()
	resetConfigShowState()
	for _, c := range commands {
		resetCobraFlagState(c)
	}
}

// resetCobraFlagState clears Changed on every flag of c and its children to
// prevent test pollution.
func resetCobraFlagState(c *cobra.Command) {
	c.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
	for _, child := range c.Commands() {
		resetCobraFlagState(child)
	}
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
