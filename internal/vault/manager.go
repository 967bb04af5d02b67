package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/PolarWolf314/fmp/internal/cipher"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	logger "github.com/PolarWolf314/fmp/internal/logging"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/utils"
)

const (
	// Ext is the suffix of every vault file in VaultDir.
	Ext = ".tar.gz.gpg"

	// BackupExt is appended to a vault path to form its backup path.
	BackupExt = ".bak"

	lockExt = ".lock"
)

// Config is everything a Manager needs to know about the host. It is built
// once by the caller; the Manager never reads global state.
type Config struct {
	// VaultDir holds the encrypted vault files.
	VaultDir string

	// WorkDir holds ephemeral decrypted trees, one subdirectory per vault.
	WorkDir string

	// VerifyCommit decrypts every staged vault and compares it with the
	// bundle before replacing the live file.
	VerifyCommit bool

	// LockTimeout is how long Open waits for a busy vault. Zero fails
	// immediately with ErrVaultBusy.
	LockTimeout time.Duration

	// Gate, when set, must pass before a vault is opened, deleted or
	// restored. It runs with the vault lock held.
	Gate Gate
}

// Gate authorizes access to a vault beyond its encryption key. passphrase
// is the one the caller opened with and is nil for Delete and Restore.
type Gate interface {
	Check(ctx context.Context, v Vault, passphrase *securemem.Secret) error
}

// Vault identifies one encrypted vault file.
type Vault struct {
	Name      string
	Path      string
	Recipient string
}

// Manager drives the Sealed -> Open -> Sealed lifecycle of vaults in one
// VaultDir.
type Manager struct {
	cfg    Config
	cipher cipher.Cipher
	log    logger.Logger

	// beforeReplace runs after the new ciphertext is staged and verified and
	// before it is renamed over the vault.
	beforeReplace func(staged string) error
}

// NewManager validates cfg and creates the vault and work directories.
func NewManager(cfg Config, c cipher.Cipher, log logger.Logger) (*Manager, error) {
	if cfg.VaultDir == "" || cfg.WorkDir == "" {
		return nil, fmt.Errorf("%w: vault and work directories must be set", kerrors.ErrUserInput)
	}
	if c == nil {
		return nil, errors.New("no encryption backend configured")
	}
	if err := utils.EnsurePrivateDir(cfg.VaultDir); err != nil {
		return nil, err
	}
	if err := utils.EnsurePrivateDir(cfg.WorkDir); err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, cipher: c, log: log}, nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// Ref returns the Vault called name. recipient may be empty for operations
// that never encrypt.
func (m *Manager) Ref(name, recipient string) (Vault, error) {
	if err := utils.ValidateVaultName(name); err != nil {
		return Vault{}, err
	}
	return Vault{
		Name:      name,
		Path:      filepath.Join(m.cfg.VaultDir, name+Ext),
		Recipient: strings.TrimSpace(recipient),
	}, nil
}

// Exists reports whether the vault file is present.
func (m *Manager) Exists(v Vault) bool {
	ok, err := utils.FileExists(v.Path)
	return err == nil && ok
}

// BackupPath returns where Backup copies v.
func (m *Manager) BackupPath(v Vault) string {
	return v.Path + BackupExt
}

// List returns the names of the vaults in VaultDir, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.VaultDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %w", kerrors.ErrIO, m.cfg.VaultDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), Ext)
		if utils.ValidateVaultName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// sessionRoot is the per-vault directory that holds session trees. Anything
// found there while the vault lock is held belongs to a crashed session.
func (m *Manager) sessionRoot(v Vault) string {
	return filepath.Join(m.cfg.WorkDir, v.Name)
}

func (m *Manager) requireExisting(v Vault) error {
	ok, err := utils.FileExists(v.Path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w %q", kerrors.ErrVaultNotFound, v.Name)
	}
	return nil
}

// cipherError tags err with class unless the backend already classified it.
func (m *Manager) checkGate(ctx context.Context, v Vault, passphrase *securemem.Secret) error {
	if m.cfg.Gate == nil {
		return nil
	}
	return m.cfg.Gate.Check(ctx, v, passphrase)
}

func cipherError(class, err error) error {
	if kerrors.Classify(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}
