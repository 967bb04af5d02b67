package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/fmp/internal/accounts"
	"github.com/PolarWolf314/fmp/internal/archive"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/utils"
	"github.com/google/uuid"
)

// Session is one Open span of a vault. It holds the vault lock and owns the
// decrypted tree until Commit or Abort.
type Session struct {
	id    string
	m     *Manager
	vault Vault
	root  string
	dir   string
	store *accounts.Store
	lock  *fileLock
	pass  *securemem.Secret

	closed bool
}

// CommitResult reports a successful commit. Warnings come from cleanup that
// failed after the new vault was already in place.
type CommitResult struct {
	Vault    Vault
	Warnings []string
	Verified bool
}

// Open decrypts v into a private session tree and loads its accounts. On
// any failure, including cancellation of ctx, the tree is purged, the lock
// released and v left untouched.
func (m *Manager) Open(ctx context.Context, v Vault, passphrase *securemem.Secret) (*Session, error) {
	lock, err := m.lock(ctx, v)
	if err != nil {
		return nil, err
	}

	s, err := m.open(ctx, v, passphrase, lock)
	if err != nil {
		m.discard(m.sessionRoot(v))
		_ = lock.release()
		return nil, err
	}
	return s, nil
}

func (m *Manager) open(ctx context.Context, v Vault, passphrase *securemem.Secret, lock *fileLock) (*Session, error) {
	if err := m.requireExisting(v); err != nil {
		return nil, err
	}
	if err := m.checkGate(ctx, v, passphrase); err != nil {
		return nil, err
	}

	root := m.sessionRoot(v)
	m.discard(root)

	id := uuid.NewString()
	dir := filepath.Join(root, "session-"+id)
	if err := utils.EnsurePrivateDir(dir); err != nil {
		return nil, err
	}
	m.log.Debugf("Opening %s in %s", v.Name, dir)

	bundle, err := m.cipher.Decrypt(ctx, v.Path, v.Recipient, passphrase)
	if err != nil {
		return nil, cipherError(kerrors.ErrDecryption, err)
	}
	defer bundle.Destroy()

	if err := archive.Expand(ctx, bundle, dir); err != nil {
		return nil, err
	}
	if err := archive.Validate(dir); err != nil {
		return nil, err
	}
	store, err := accounts.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pass *securemem.Secret
	if passphrase != nil {
		if pass, err = passphrase.Clone(); err != nil {
			return nil, err
		}
	}

	return &Session{
		id:    id,
		m:     m,
		vault: v,
		root:  root,
		dir:   dir,
		store: store,
		lock:  lock,
		pass:  pass,
	}, nil
}

// discard purges a session root, logging anything it could not overwrite.
func (m *Manager) discard(root string) {
	report, err := archive.Purge(root)
	for _, w := range report.Warnings() {
		m.log.Warnf("%s", w)
	}
	if err != nil {
		m.log.Warnf("Failed to purge %s: %v", root, err)
	} else if report.Overwritten > 0 || len(report.Unlinked) > 0 {
		m.log.Debugf("Purged %s", root)
	}
}

// ID returns the session id recorded in the audit trail.
func (s *Session) ID() string {
	return s.id
}

// Vault returns the vault the session was opened on.
func (s *Session) Vault() Vault {
	return s.vault
}

// Dir returns the decrypted tree.
func (s *Session) Dir() string {
	return s.dir
}

// Accounts returns the account store of the decrypted tree.
func (s *Session) Accounts() *accounts.Store {
	return s.store
}

// Closed reports whether Commit or Abort has run.
func (s *Session) Closed() bool {
	return s.closed
}

// Commit re-encrypts the tree over the vault and ends the session.
func (s *Session) Commit(ctx context.Context) (*CommitResult, error) {
	return s.commitTo(ctx, s.vault, nil)
}

// commitTo seals the tree as target. afterReplace runs once target is
// durable and before the session is closed; its failures become warnings.
func (s *Session) commitTo(ctx context.Context, target Vault, afterReplace func() []string) (*CommitResult, error) {
	if s.closed {
		return nil, kerrors.ErrSessionClosed
	}

	// Verification needs our own secret key, which a new recipient may not be.
	verify := s.m.cfg.VerifyCommit && target.Recipient == s.vault.Recipient

	res, err := s.m.seal(ctx, s.dir, target, verify, s.pass)
	if err != nil {
		if _, cerr := s.close(); cerr != nil {
			s.m.log.Warnf("Cleanup after failed commit: %v", cerr)
		}
		return nil, err
	}

	if afterReplace != nil {
		res.Warnings = append(res.Warnings, afterReplace()...)
	}

	report, err := s.close()
	res.Warnings = append(res.Warnings, report.Warnings()...)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}
	return res, nil
}

// Abort discards the tree without touching the vault. It is a no-op once
// the session is closed.
func (s *Session) Abort() (*archive.PurgeReport, error) {
	if s.closed {
		return &archive.PurgeReport{Path: s.root}, nil
	}
	return s.close()
}

func (s *Session) close() (*archive.PurgeReport, error) {
	s.closed = true
	if s.pass != nil {
		s.pass.Destroy()
	}

	report, err := archive.Purge(s.root)
	if relErr := s.lock.release(); err == nil {
		err = relErr
	}
	return report, err
}

// seal bundles dir, encrypts it to target.Recipient and atomically replaces
// target.Path. Until the final rename the vault file is not touched and the
// staged ciphertext is removed on failure.
func (m *Manager) seal(ctx context.Context, dir string, target Vault, verify bool, pass *securemem.Secret) (*CommitResult, error) {
	if target.Recipient == "" {
		return nil, fmt.Errorf("%w for vault %q", kerrors.ErrNoRecipient, target.Name)
	}

	bundle, err := archive.Bundle(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer bundle.Destroy()

	ciphertext, err := m.cipher.Encrypt(ctx, bundle, target.Recipient)
	if err != nil {
		return nil, cipherError(kerrors.ErrEncryption, err)
	}

	vaultDir := filepath.Dir(target.Path)
	staged, err := archive.StageFile(vaultDir, "."+filepath.Base(target.Path)+".tmp-*", ciphertext, 0600)
	if err != nil {
		return nil, err
	}
	replaced := false
	defer func() {
		if !replaced {
			_ = os.Remove(staged)
		}
	}()

	res := &CommitResult{Vault: target}
	if verify {
		if err := m.verify(ctx, staged, target, bundle, pass); err != nil {
			return nil, err
		}
		res.Verified = true
	}

	if m.beforeReplace != nil {
		if err := m.beforeReplace(staged); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.Rename(staged, target.Path); err != nil {
		return nil, fmt.Errorf("%w: replacing %s: %w", kerrors.ErrIO, target.Path, err)
	}
	replaced = true

	if err := archive.SyncDir(vaultDir); err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}
	m.log.Debugf("Sealed %s to %s", target.Name, target.Path)
	return res, nil
}

func (m *Manager) verify(ctx context.Context, staged string, target Vault, bundle, pass *securemem.Secret) error {
	got, err := m.cipher.Decrypt(ctx, staged, target.Recipient, pass)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: verifying staged vault: %v", kerrors.ErrEncryption, err)
	}
	defer got.Destroy()

	if !got.Equal(bundle) {
		return fmt.Errorf("%w: staged vault does not decrypt to the committed tree", kerrors.ErrEncryption)
	}
	return nil
}
