package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/fmp/internal/audit"
	"github.com/PolarWolf314/fmp/internal/cipher"
	"github.com/PolarWolf314/fmp/internal/configs"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/keyring"
	logger "github.com/PolarWolf314/fmp/internal/logging"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/twofactor"
	"github.com/PolarWolf314/fmp/internal/vault"
)

// PassphraseEnv names the environment variable checked first for a private
// key passphrase.
const PassphraseEnv = "FMP_PASSPHRASE"

// PromptFunc reads a secret from the user.
type PromptFunc func(prompt string) (*securemem.Secret, error)

// CodeFunc returns the one-time code for a vault.
type CodeFunc func(name string) (string, error)

// Env is what every workflow runs against. It is built once per command.
type Env struct {
	ConfigPath string
	Config     *configs.Config
	Settings   *configs.Settings
	Manager    *vault.Manager
	Audit      *audit.Logger
	TwoFactor  *twofactor.Store
	Log        logger.Logger

	// Prompt asks for a passphrase when neither the environment nor the OS
	// keyring has one. Nil disables prompting.
	Prompt PromptFunc

	// Code supplies one-time codes for vaults with two-factor enabled. Nil
	// makes those vaults fail with ErrCodeRequired.
	Code CodeFunc
}

// SetupOptions configures Setup.
type SetupOptions struct {
	// ConfigPath overrides the default config location.
	ConfigPath string

	Log    logger.Logger
	Prompt PromptFunc
}

// Setup loads the configuration, resolves paths and builds the vault
// manager with the configured encryption backend.
func Setup(opts SetupOptions) (*Env, error) {
	path := opts.ConfigPath
	if path == "" {
		p, err := configs.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := configs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	for _, key := range cfg.Unknown {
		opts.Log.Warnf("Unknown config key %q in %s", key, path)
	}

	c, err := cipher.New(cfg.Backend, cipher.Options{
		GPGBinary:   cfg.GPGBinary,
		GPGHome:     cfg.GPGHome,
		KeyringFile: cfg.KeyringFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrUserInput, err)
	}
	return NewEnv(path, cfg, c, opts.Log, opts.Prompt)
}

// NewEnv assembles an Env around an already loaded config and cipher.
func NewEnv(configPath string, cfg *configs.Config, c cipher.Cipher, log logger.Logger, prompt PromptFunc) (*Env, error) {
	settings, err := cfg.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	log.Debugf("Vaults in %s, work trees in %s", settings.VaultDir, settings.WorkDir)

	env := &Env{
		ConfigPath: configPath,
		Config:     cfg,
		Settings:   settings,
		Audit:      audit.New(settings.AuditPath),
		TwoFactor: twofactor.New(c, log,
			filepath.Join(settings.DataDir, twofactor.LedgerName),
			filepath.Join(filepath.Dir(configPath), twofactor.LedgerName),
		),
		Log:    log,
		Prompt: prompt,
	}

	m, err := vault.NewManager(vault.Config{
		VaultDir:     settings.VaultDir,
		WorkDir:      settings.WorkDir,
		VerifyCommit: settings.Verify,
		LockTimeout:  settings.LockTimeout,
		Gate: &twofactor.Guard{
			Store:      env.TwoFactor,
			Code:       env.code,
			Passphrase: env.Passphrase,
		},
	}, c, log)
	if err != nil {
		return nil, err
	}
	env.Manager = m
	return env, nil
}

// code defers to e.Code, which callers may set after NewEnv.
func (e *Env) code(name string) (string, error) {
	if e.Code == nil {
		return "", fmt.Errorf("%w for vault %q", kerrors.ErrCodeRequired, name)
	}
	return e.Code(name)
}

// Vault resolves name (or default_vault when empty) against the registry.
func (e *Env) Vault(name string) (vault.Vault, error) {
	name, err := e.Config.SelectVault(name)
	if err != nil {
		return vault.Vault{}, err
	}
	return e.Manager.Ref(name, e.Config.Recipient(name))
}

// Passphrase finds the private key passphrase for recipient: FMP_PASSPHRASE,
// then the OS keyring when use_os_keyring is set, then a prompt for the
// openpgp backend. A nil Secret with a nil error means gpg-agent will ask.
func (e *Env) Passphrase(recipient string) (*securemem.Secret, error) {
	if v := os.Getenv(PassphraseEnv); v != "" {
		e.Log.Debugf("Using passphrase from %s", PassphraseEnv)
		return securemem.New([]byte(v)), nil
	}

	if e.Config.UseOSKeyring && recipient != "" {
		s, err := keyring.LoadPassphrase(recipient)
		if err == nil {
			e.Log.Debugf("Using passphrase from OS keyring")
			return s, nil
		}
		if !errors.Is(err, kerrors.ErrNotFound) {
			e.Log.Warnf("Could not read OS keyring: %v", err)
		}
	}

	if e.Config.Backend == configs.BackendOpenPGP && e.Prompt != nil {
		return e.Prompt(fmt.Sprintf("Passphrase for %s: ", recipient))
	}
	return nil, nil
}

// SessionResult reports a committed session.
type SessionResult struct {
	Vault    string
	Session  string
	Verified bool
	Warnings []string
}

// withSession opens the vault, runs fn and commits when fn asks for it.
// Anything else, including an error from fn, aborts. entry is written to the
// audit log after a successful commit.
func (e *Env) withSession(ctx context.Context, vaultName string, entry audit.Entry, fn func(s *vault.Session) (commit bool, err error)) (*SessionResult, error) {
	v, err := e.Vault(vaultName)
	if err != nil {
		return nil, err
	}

	pass, err := e.Passphrase(v.Recipient)
	if err != nil {
		return nil, err
	}
	defer pass.Destroy()

	s, err := e.Manager.Open(ctx, v, pass)
	if err != nil {
		return nil, err
	}

	commit, err := fn(s)
	if err != nil || !commit {
		e.abort(s)
		return nil, err
	}

	if v.Recipient == "" {
		e.abort(s)
		return nil, fmt.Errorf("%w for vault %q (run change-recipient first)", kerrors.ErrNoRecipient, v.Name)
	}

	res, err := s.Commit(ctx)
	if err != nil {
		return nil, err
	}
	warnings := append(res.Warnings, s.Accounts().Warnings()...)
	for _, w := range warnings {
		e.Log.Warnf("%s", w)
	}

	entry.Vault = v.Name
	entry.Session = s.ID()
	e.Audit.Log(entry)

	return &SessionResult{
		Vault:    v.Name,
		Session:  s.ID(),
		Verified: res.Verified,
		Warnings: warnings,
	}, nil
}

func (e *Env) abort(s *vault.Session) {
	report, err := s.Abort()
	for _, w := range report.Warnings() {
		e.Log.Warnf("%s", w)
	}
	if err != nil {
		e.Log.Warnf("Failed to clean up session: %v", err)
	}
}

// updateRegistry applies fn to the config file on disk and to the loaded
// config. Only the file's own values are written back.
func (e *Env) updateRegistry(fn func(c *configs.Config)) error {
	fileCfg, err := configs.LoadFile(e.ConfigPath)
	if err != nil {
		return err
	}
	fn(fileCfg)
	fn(e.Config)
	return fileCfg.Save(e.ConfigPath)
}
