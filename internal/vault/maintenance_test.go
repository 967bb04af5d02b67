package vault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

func leaveStaleTree(t *testing.T, m *Manager, name string) string {
	t.Helper()
	dir := filepath.Join(m.cfg.WorkDir, name, "session-crashed", "github")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data"), []byte("leftover"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return filepath.Join(m.cfg.WorkDir, name)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})
	v := createVault(t, m, "personal")
	addAccount(t, m, v, "github", "octocat", "hunter2")

	dst := filepath.Join(t.TempDir(), "personal.export")
	if err := m.Export(ctx, v, dst); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !bytes.Equal(readFile(t, dst), readFile(t, v.Path)) {
		t.Error("export differs from the sealed vault")
	}
	if err := m.Export(ctx, v, dst); !errors.Is(err, kerrors.ErrUserInput) {
		t.Errorf("expected ErrUserInput when overwriting an export, got %v", err)
	}

	copyRef, _ := m.Ref("copy", "alice@example.com")
	n, err := m.Import(ctx, copyRef, dst, nil)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 account, got %d", n)
	}
	if !bytes.Equal(readFile(t, copyRef.Path), readFile(t, dst)) {
		t.Error("imported vault differs from the source")
	}
	assertTreePurged(t, m, copyRef)

	if _, err := m.Import(ctx, copyRef, dst, nil); !errors.Is(err, kerrors.ErrVaultExists) {
		t.Errorf("expected ErrVaultExists, got %v", err)
	}
}

func TestImportRejectsBadFiles(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})
	v, _ := m.Ref("incoming", "alice@example.com")

	if _, err := m.Import(ctx, v, filepath.Join(t.TempDir(), "missing"), nil); !errors.Is(err, kerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	garbage := filepath.Join(t.TempDir(), "garbage")
	if err := os.WriteFile(garbage, []byte("not a vault"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Import(ctx, v, garbage, nil); !errors.Is(err, kerrors.ErrDecryption) {
		t.Errorf("expected ErrDecryption, got %v", err)
	}

	corrupt := filepath.Join(t.TempDir(), "corrupt")
	if err := os.WriteFile(corrupt, []byte("FAKE alice@example.com\nnot a tarball"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Import(ctx, v, corrupt, nil); !errors.Is(err, kerrors.ErrCorruptArchive) {
		t.Errorf("expected ErrCorruptArchive, got %v", err)
	}

	if m.Exists(v) {
		t.Error("a rejected import left a vault behind")
	}
	assertTreePurged(t, m, v)
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})
	v := createVault(t, m, "personal")
	busy := createVault(t, m, "busy")

	stale := leaveStaleTree(t, m, "personal")
	orphan := leaveStaleTree(t, m, "gone")

	s, err := m.Open(ctx, busy, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Abort()

	dry, err := m.Clean(ctx, true)
	if err != nil {
		t.Fatalf("Clean dry run failed: %v", err)
	}
	if !slices.Equal(dry.Stale, []string{"personal"}) || !slices.Equal(dry.Orphaned, []string{"gone"}) || !slices.Equal(dry.Busy, []string{"busy"}) {
		t.Errorf("unexpected dry run result %+v", dry)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Errorf("dry run removed %s: %v", stale, err)
	}

	res, err := m.Clean(ctx, false)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if res.Overwritten != 2 {
		t.Errorf("expected 2 files overwritten, got %d", res.Overwritten)
	}
	for _, dir := range []string{stale, orphan} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("expected %s to be purged: %v", dir, err)
		}
	}
	if _, err := os.Stat(s.Dir()); err != nil {
		t.Errorf("Clean touched an open session: %v", err)
	}
	if !m.Exists(v) {
		t.Error("Clean removed a vault file")
	}
}

func TestCleanRemovesStaleLocks(t *testing.T) {
	origStale, origAlive := staleLock, processAlive
	t.Cleanup(func() { staleLock, processAlive = origStale, origAlive })
	staleLock = exclLockStale
	processAlive = func(int) bool { return false }

	ctx := context.Background()
	m, _ := newTestManager(t, Config{})
	v := createVault(t, m, "personal")
	tree := leaveStaleTree(t, m, "personal")

	lockPath := v.Path + lockExt
	if err := os.WriteFile(lockPath, []byte("999999\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dry, err := m.Clean(ctx, true)
	if err != nil {
		t.Fatalf("Clean dry run failed: %v", err)
	}
	if !slices.Equal(dry.StaleLocks, []string{"personal"}) || !slices.Equal(dry.Stale, []string{"personal"}) || len(dry.Busy) != 0 {
		t.Errorf("unexpected dry run result %+v", dry)
	}
	if data, _ := os.ReadFile(lockPath); !bytes.Contains(data, []byte("999999")) {
		t.Error("dry run removed the stale lock")
	}

	res, err := m.Clean(ctx, false)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if !slices.Equal(res.StaleLocks, []string{"personal"}) {
		t.Errorf("expected the stale lock to be reported, got %v", res.StaleLocks)
	}
	if data, _ := os.ReadFile(lockPath); bytes.Contains(data, []byte("999999")) {
		t.Error("stale lock survived Clean")
	}
	if _, err := os.Stat(tree); !os.IsNotExist(err) {
		t.Errorf("expected %s to be purged: %v", tree, err)
	}
}

func TestExclLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.lock")

	f, err := tryExclLock(path)
	if err != nil {
		t.Fatalf("tryExclLock failed: %v", err)
	}
	defer f.Close()
	if _, err := tryExclLock(path); !errors.Is(err, errLocked) {
		t.Errorf("expected errLocked, got %v", err)
	}
	if exclLockStale(path) {
		t.Error("a lock held by this process is not stale")
	}

	orig := processAlive
	t.Cleanup(func() { processAlive = orig })
	processAlive = func(int) bool { return false }

	if err := os.WriteFile(path, []byte("999999\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if !exclLockStale(path) {
		t.Error("expected a lock from a dead process to be stale")
	}
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if exclLockStale(path) {
		t.Error("an empty lock file is not stale")
	}
	if exclLockStale(filepath.Join(t.TempDir(), "missing.lock")) {
		t.Error("a missing lock file is not stale")
	}
}
