package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/fmp/internal/configs"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/ui"

	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

// configView is the resolved configuration as shown to the user.
type configView struct {
	ConfigPath   string            `json:"config_path"`
	Backend      string            `json:"backend"`
	KeyringFile  string            `json:"keyring_file,omitempty"`
	GPGBinary    string            `json:"gpg_binary,omitempty"`
	DataDir      string            `json:"data_dir"`
	VaultDir     string            `json:"vault_dir"`
	WorkDir      string            `json:"work_dir"`
	AuditLog     string            `json:"audit_log"`
	LockTimeout  string            `json:"lock_timeout"`
	Verify       bool              `json:"verify"`
	UseOSKeyring bool              `json:"use_os_keyring"`
	Memory       string            `json:"memory_protection"`
	DefaultVault string            `json:"default_vault,omitempty"`
	Vaults       map[string]string `json:"vaults"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved configuration",
	Long: `Displays the configuration after environment overrides and defaults
are applied, along with the vault registry.

Examples:
  fmp config show
  fmp config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		path, err := resolveConfigPath()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to find config path: %v", err)
		}
		cfg, err := configs.Load(path)
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		settings, err := cfg.Resolve(path)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to resolve settings: %v", err)
		}

		view := configView{
			ConfigPath:   path,
			Backend:      cfg.Backend,
			KeyringFile:  cfg.KeyringFile,
			GPGBinary:    cfg.GPGBinary,
			DataDir:      settings.DataDir,
			VaultDir:     settings.VaultDir,
			WorkDir:      settings.WorkDir,
			AuditLog:     settings.AuditPath,
			LockTimeout:  settings.LockTimeout.String(),
			Verify:       settings.Verify,
			UseOSKeyring: cfg.UseOSKeyring,
			Memory:       securemem.Level().String(),
			DefaultVault: cfg.DefaultVault,
			Vaults:       make(map[string]string, len(cfg.Vaults)),
		}
		if view.Backend == "" {
			view.Backend = configs.BackendGPG
		}
		for _, name := range cfg.VaultNames() {
			view.Vaults[name] = cfg.Recipient(name)
		}

		if configShowJSON {
			output, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		printConfigView(view, cfg.VaultNames())
		return nil
	},
}

func printConfigView(v configView, names []string) {
	fmt.Println(ui.Info.Sprint("Configuration") + " " + ui.Muted.Sprint(v.ConfigPath) + ":")
	fmt.Println()
	fmt.Printf("  %-18s %s\n", "Backend:", ui.Success.Sprint(v.Backend))
	if v.KeyringFile != "" {
		fmt.Printf("  %-18s %s\n", "Keyring file:", ui.Path.Sprint(v.KeyringFile))
	}
	if v.GPGBinary != "" {
		fmt.Printf("  %-18s %s\n", "GPG binary:", ui.Path.Sprint(v.GPGBinary))
	}
	fmt.Printf("  %-18s %s\n", "Vault directory:", ui.Path.Sprint(v.VaultDir))
	fmt.Printf("  %-18s %s\n", "Work directory:", ui.Path.Sprint(v.WorkDir))
	fmt.Printf("  %-18s %s\n", "Audit log:", ui.Path.Sprint(v.AuditLog))
	fmt.Printf("  %-18s %s\n", "Lock timeout:", v.LockTimeout)
	fmt.Printf("  %-18s %t\n", "Verify commits:", v.Verify)
	fmt.Printf("  %-18s %t\n", "OS keyring:", v.UseOSKeyring)
	fmt.Printf("  %-18s %s\n", "Memory locking:", v.Memory)

	if len(names) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(ui.Info.Sprint("Vaults:"))
	for _, name := range names {
		marker := " "
		if name == v.DefaultVault {
			marker = ui.Success.Sprint("*")
		}
		fmt.Printf("  %s %s → %s\n", marker, ui.Vault.Sprint(name), ui.Highlight.Sprint(v.Vaults[name]))
	}
}
