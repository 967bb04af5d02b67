package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/fmp/internal/archive"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/utils"
	"github.com/google/uuid"
)

// Create seals a new vault with an empty account index. passphrase is only
// used to verify the result when VerifyCommit is set.
func (m *Manager) Create(ctx context.Context, v Vault, passphrase *securemem.Secret) (*CommitResult, error) {
	if v.Recipient == "" {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrNoRecipient, v.Name)
	}

	lock, err := m.lock(ctx, v)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.release() }()

	ok, err := utils.FileExists(v.Path)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("%w: %q", kerrors.ErrVaultExists, v.Name)
	}

	root := m.sessionRoot(v)
	m.discard(root)
	defer m.discard(root)

	dir := filepath.Join(root, "session-"+uuid.NewString())
	if err := utils.EnsurePrivateDir(dir); err != nil {
		return nil, err
	}
	if err := archive.WriteIndex(dir, nil); err != nil {
		return nil, err
	}

	return m.seal(ctx, dir, v, m.cfg.VerifyCommit, passphrase)
}

// Delete removes the vault file and, with withBackup, its backup. The
// configured Gate must pass first.
func (m *Manager) Delete(ctx context.Context, v Vault, withBackup bool) error {
	lock, err := m.lock(ctx, v)
	if err != nil {
		return err
	}
	defer func() { _ = lock.release() }()

	if err := m.requireExisting(v); err != nil {
		return err
	}
	if err := m.checkGate(ctx, v, nil); err != nil {
		return err
	}
	m.discard(m.sessionRoot(v))

	if err := os.Remove(v.Path); err != nil {
		return fmt.Errorf("%w: removing %s: %w", kerrors.ErrIO, v.Path, err)
	}
	if withBackup {
		if err := removeIfExists(m.BackupPath(v)); err != nil {
			return err
		}
	}
	return archive.SyncDir(m.cfg.VaultDir)
}

// Backup copies the sealed vault to its backup path and returns that path.
func (m *Manager) Backup(ctx context.Context, v Vault) (string, error) {
	lock, err := m.lock(ctx, v)
	if err != nil {
		return "", err
	}
	defer func() { _ = lock.release() }()

	if err := m.requireExisting(v); err != nil {
		return "", err
	}
	dst := m.BackupPath(v)
	if err := archive.CopyFileAtomic(v.Path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Restore atomically replaces the vault with its backup.
func (m *Manager) Restore(ctx context.Context, v Vault) error {
	lock, err := m.lock(ctx, v)
	if err != nil {
		return err
	}
	defer func() { _ = lock.release() }()

	src := m.BackupPath(v)
	ok, err := utils.FileExists(src)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w for vault %q", kerrors.ErrBackupNotFound, v.Name)
	}
	if err := m.checkGate(ctx, v, nil); err != nil {
		return err
	}
	return archive.CopyFileAtomic(src, v.Path)
}

// Rename re-seals v under newName. The old vault, and its backup which is
// moved alongside, are only touched once the new file is durable.
func (m *Manager) Rename(ctx context.Context, v Vault, newName string, passphrase *securemem.Secret) (*CommitResult, error) {
	target, err := m.Ref(newName, v.Recipient)
	if err != nil {
		return nil, err
	}
	if target.Path == v.Path {
		return nil, fmt.Errorf("%w: %q", kerrors.ErrVaultExists, newName)
	}

	targetLock, err := m.lock(ctx, target)
	if err != nil {
		return nil, err
	}
	defer func() { _ = targetLock.release() }()

	if m.Exists(target) {
		return nil, fmt.Errorf("%w: %q", kerrors.ErrVaultExists, newName)
	}

	s, err := m.Open(ctx, v, passphrase)
	if err != nil {
		return nil, err
	}

	return s.commitTo(ctx, target, func() []string {
		var warnings []string
		if err := os.Remove(v.Path); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to remove %s: %v", v.Path, err))
		}
		oldBackup, newBackup := m.BackupPath(v), m.BackupPath(target)
		if err := os.Rename(oldBackup, newBackup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			warnings = append(warnings, fmt.Sprintf("failed to move backup %s: %v", oldBackup, err))
		}
		if err := archive.SyncDir(m.cfg.VaultDir); err != nil {
			warnings = append(warnings, err.Error())
		}
		return warnings
	})
}

// ChangeRecipient re-seals v to newRecipient. An unknown recipient fails
// before the vault is replaced.
func (m *Manager) ChangeRecipient(ctx context.Context, v Vault, newRecipient string, passphrase *securemem.Secret) (*CommitResult, error) {
	target := v
	target.Recipient = newRecipient
	if target.Recipient == "" {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrNoRecipient, v.Name)
	}

	s, err := m.Open(ctx, v, passphrase)
	if err != nil {
		return nil, err
	}
	return s.commitTo(ctx, target, nil)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %w", kerrors.ErrIO, path, err)
	}
	return nil
}
