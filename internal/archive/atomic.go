package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

// WriteFileAtomic replaces path with data. The bytes are written to a temp
// file in the same directory, synced, and renamed over path, so a failure
// at any point leaves the previous contents intact.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := StageFile(dir, "."+filepath.Base(path)+".tmp-*", data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replacing %s: %w", kerrors.ErrIO, path, err)
	}
	return SyncDir(dir)
}

// StageFile writes data to a new temp file in dir and syncs it. The caller
// owns the returned path and must rename or remove it.
func StageFile(dir, pattern string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file in %s: %w", kerrors.ErrIO, dir, err)
	}
	name := f.Name()

	fail := func(op string, err error) (string, error) {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("%w: %s %s: %w", kerrors.ErrIO, op, name, err)
	}

	if err := f.Chmod(perm); err != nil && runtime.GOOS != "windows" {
		return fail("chmod", err)
	}
	if _, err := f.Write(data); err != nil {
		return fail("writing", err)
	}
	if err := f.Sync(); err != nil {
		return fail("syncing", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("%w: closing %s: %w", kerrors.ErrIO, name, err)
	}
	return name, nil
}

// SyncDir flushes directory metadata so a preceding rename is durable.
func SyncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", kerrors.ErrIO, dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %w", kerrors.ErrIO, dir, err)
	}
	return nil
}

// CopyFileAtomic makes dst a byte-identical copy of src with mode 0600.
func CopyFileAtomic(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", kerrors.ErrIO, src, err)
	}
	return WriteFileAtomic(dst, data, 0600)
}
