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

	"github.com/PolarWolf314/fmp/internal/accounts"
	"github.com/PolarWolf314/fmp/internal/archive"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/utils"
	"github.com/google/uuid"
)

// Export copies the sealed vault to dst. The copy stays encrypted.
func (m *Manager) Export(ctx context.Context, v Vault, dst string) error {
	lock, err := m.lock(ctx, v)
	if err != nil {
		return err
	}
	defer func() { _ = lock.release() }()

	if err := m.requireExisting(v); err != nil {
		return err
	}
	ok, err := utils.FileExists(dst)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s already exists", kerrors.ErrUserInput, dst)
	}
	return archive.CopyFileAtomic(v.Path, dst)
}

// Import adopts the sealed vault file src as v. The file must decrypt to a
// well-formed account tree before it is copied in. It returns the number of
// accounts found.
func (m *Manager) Import(ctx context.Context, v Vault, src string, passphrase *securemem.Secret) (int, error) {
	lock, err := m.lock(ctx, v)
	if err != nil {
		return 0, err
	}
	defer func() { _ = lock.release() }()

	if m.Exists(v) {
		return 0, fmt.Errorf("%w: %q", kerrors.ErrVaultExists, v.Name)
	}
	ok, err := utils.FileExists(src)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", kerrors.ErrNotFound, src)
	}

	root := m.sessionRoot(v)
	m.discard(root)
	defer m.discard(root)

	dir := filepath.Join(root, "session-"+uuid.NewString())
	if err := utils.EnsurePrivateDir(dir); err != nil {
		return 0, err
	}

	bundle, err := m.cipher.Decrypt(ctx, src, v.Recipient, passphrase)
	if err != nil {
		return 0, cipherError(kerrors.ErrDecryption, err)
	}
	defer bundle.Destroy()

	if err := archive.Expand(ctx, bundle, dir); err != nil {
		return 0, err
	}
	if err := archive.Validate(dir); err != nil {
		return 0, err
	}
	store, err := accounts.Load(dir)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := archive.CopyFileAtomic(src, v.Path); err != nil {
		return 0, err
	}
	return store.Len(), nil
}

// CleanResult reports what Clean found in the work directory.
type CleanResult struct {
	// Stale are vaults whose session trees were left behind.
	Stale []string

	// Orphaned are trees whose vault no longer exists.
	Orphaned []string

	// Busy are vaults that are open elsewhere and were left alone.
	Busy []string

	// StaleLocks are vaults whose lock file outlived its holder. Only the
	// lock-file fallback used off unix can leave one.
	StaleLocks []string

	Overwritten int
	Warnings    []string
}

// Clean purges session trees left behind by interrupted sessions. A tree
// is only touched while its vault lock is held, so live sessions are never
// disturbed. With dryRun nothing is removed.
func (m *Manager) Clean(ctx context.Context, dryRun bool) (*CleanResult, error) {
	result := &CleanResult{}
	stale, err := m.clearStaleLocks(result, dryRun)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(m.cfg.WorkDir)
	if errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", kerrors.ErrIO, m.cfg.WorkDir, err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() || utils.ValidateVaultName(e.Name()) != nil {
			continue
		}
		v, err := m.Ref(e.Name(), "")
		if err != nil {
			continue
		}

		// A dry run leaves stale locks in place, so their trees cannot be
		// locked but are not busy either.
		var l *fileLock
		if !dryRun || !stale[v.Name] {
			l, err = tryLock(v.Path + lockExt)
			if errors.Is(err, errLocked) {
				result.Busy = append(result.Busy, v.Name)
				continue
			}
			if err != nil {
				return nil, err
			}
		}

		if m.Exists(v) {
			result.Stale = append(result.Stale, v.Name)
		} else {
			result.Orphaned = append(result.Orphaned, v.Name)
		}
		if !dryRun {
			report, err := archive.Purge(m.sessionRoot(v))
			result.Overwritten += report.Overwritten
			result.Warnings = append(result.Warnings, report.Warnings()...)
			if err != nil {
				result.Warnings = append(result.Warnings, err.Error())
			}
		}
		_ = l.release()
	}

	slices.Sort(result.Stale)
	slices.Sort(result.Orphaned)
	slices.Sort(result.Busy)
	return result, nil
}

// clearStaleLocks records, and unless dryRun removes, vault lock files whose
// holder no longer runs.
func (m *Manager) clearStaleLocks(result *CleanResult, dryRun bool) (map[string]bool, error) {
	entries, err := os.ReadDir(m.cfg.VaultDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", kerrors.ErrIO, m.cfg.VaultDir, err)
	}

	stale := make(map[string]bool)
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), Ext+lockExt)
		if !ok || e.IsDir() {
			continue
		}
		path := filepath.Join(m.cfg.VaultDir, e.Name())
		if !staleLock(path) {
			continue
		}
		if !dryRun {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("removing stale lock %s: %v", path, err))
				continue
			}
			m.log.Debugf("Removed stale lock %s", path)
		}
		stale[name] = true
		result.StaleLocks = append(result.StaleLocks, name)
	}
	slices.Sort(result.StaleLocks)
	return stale, nil
}
