package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/utils"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FMP_"

// Encryption backends.
const (
	BackendGPG     = "gpg"
	BackendOpenPGP = "openpgp"
)

// Config is the on-disk configuration, overlaid with FMP_* environment
// variables.
type Config struct {
	DataDir      string `toml:"data_dir,omitempty" env:"DATA_DIR"`
	WorkDir      string `toml:"work_dir,omitempty" env:"WORK_DIR"`
	Backend      string `toml:"backend,omitempty" env:"BACKEND"`
	GPGBinary    string `toml:"gpg_binary,omitempty" env:"GPG_BINARY"`
	GPGHome      string `toml:"gpg_home,omitempty" env:"GPG_HOME"`
	KeyringFile  string `toml:"keyring_file,omitempty" env:"KEYRING_FILE"`
	SkipVerify   bool   `toml:"skip_verify,omitempty" env:"SKIP_VERIFY"`
	LockTimeout  string `toml:"lock_timeout,omitempty" env:"LOCK_TIMEOUT"`
	DefaultVault string `toml:"default_vault,omitempty" env:"DEFAULT_VAULT"`
	UseOSKeyring bool   `toml:"use_os_keyring,omitempty" env:"USE_OS_KEYRING"`

	Vaults map[string]VaultEntry `toml:"vaults,omitempty"`

	// Unknown lists keys in the file that were not recognised.
	Unknown []string `toml:"-"`
}

// VaultEntry is the registry record of one vault.
type VaultEntry struct {
	Recipient string `toml:"recipient"`
}

// DefaultPath returns $FMP_CONFIG, or config.toml in the user config dir.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting config directory: %w", err)
	}
	return filepath.Join(dir, "fmp", "config.toml"), nil
}

// LoadFile reads the config file at path alone. A missing file yields an
// empty config. Use it when the config is going to be saved back, so
// environment overrides never end up on disk.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	ok, err := utils.FileExists(path)
	if err != nil {
		return nil, err
	}
	if ok {
		unknown, err := LoadTOML(path, cfg)
		if err != nil {
			return nil, err
		}
		cfg.Unknown = unknown
	}
	if cfg.Vaults == nil {
		cfg.Vaults = make(map[string]VaultEntry)
	}
	return cfg, nil
}

// Load reads the config file at path, which may be absent, and overlays the
// environment. Environment values win over the file; a boolean can only be
// switched on from the environment.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	envCfg := &Config{}
	if err := env.ParseWithOptions(envCfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("%w: error getting env configs: %w", kerrors.ErrUserInput, err)
	}
	if err := mergo.Merge(cfg, envCfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging configs: %w", err)
	}
	return cfg, cfg.Validate()
}

// Save writes c to path with mode 0600.
func (c *Config) Save(path string) error {
	if err := SaveTOML(path, c); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", BackendGPG:
	case BackendOpenPGP:
		if c.KeyringFile == "" {
			return fmt.Errorf("%w: backend %q requires keyring_file", kerrors.ErrUserInput, c.Backend)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q (want %q or %q)", kerrors.ErrUserInput, c.Backend, BackendGPG, BackendOpenPGP)
	}

	if _, err := c.lockTimeout(); err != nil {
		return err
	}
	if c.DefaultVault != "" {
		if err := utils.ValidateVaultName(c.DefaultVault); err != nil {
			return fmt.Errorf("default_vault: %w", err)
		}
	}
	for name := range c.Vaults {
		if err := utils.ValidateVaultName(name); err != nil {
			return fmt.Errorf("vaults: %w", err)
		}
	}
	return nil
}

func (c *Config) lockTimeout() (time.Duration, error) {
	if c.LockTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: lock_timeout %q is not a non-negative duration", kerrors.ErrUserInput, c.LockTimeout)
	}
	return d, nil
}

// Recipient returns the registered recipient of vault name, or "".
func (c *Config) Recipient(name string) string {
	return c.Vaults[name].Recipient
}

// HasVault reports whether name is registered.
func (c *Config) HasVault(name string) bool {
	_, ok := c.Vaults[name]
	return ok
}

// VaultNames returns the registered vault names, sorted.
func (c *Config) VaultNames() []string {
	names := make([]string, 0, len(c.Vaults))
	for name := range c.Vaults {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetVault registers or updates a vault.
func (c *Config) SetVault(name, recipient string) {
	if c.Vaults == nil {
		c.Vaults = make(map[string]VaultEntry)
	}
	c.Vaults[name] = VaultEntry{Recipient: strings.TrimSpace(recipient)}
}

// RemoveVault drops a vault from the registry, and clears default_vault if
// it pointed there.
func (c *Config) RemoveVault(name string) {
	delete(c.Vaults, name)
	if c.DefaultVault == name {
		c.DefaultVault = ""
	}
}

// RenameVault moves a registry entry, following default_vault along.
func (c *Config) RenameVault(oldName, newName string) {
	entry, ok := c.Vaults[oldName]
	if ok {
		delete(c.Vaults, oldName)
		c.SetVault(newName, entry.Recipient)
	}
	if c.DefaultVault == oldName {
		c.DefaultVault = newName
	}
}

// SelectVault resolves the vault to operate on: the --vault flag, then
// default_vault.
func (c *Config) SelectVault(flag string) (string, error) {
	name := flag
	if name == "" {
		name = c.DefaultVault
	}
	if name == "" {
		return "", fmt.Errorf("%w (pass --vault or set default_vault)", kerrors.ErrNoVaultSelected)
	}
	if err := utils.ValidateVaultName(name); err != nil {
		return "", err
	}
	return name, nil
}
