package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

// EnsurePrivateDir creates dir (and parents) and forces it to 0700 even when
// it already existed with looser permissions.
func EnsurePrivateDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: creating %s: %w", kerrors.ErrIO, dir, err)
	}
	if err := os.Chmod(dir, 0700); err != nil {
		return fmt.Errorf("%w: restricting %s: %w", kerrors.ErrIO, dir, err)
	}
	return nil
}

// FileExists reports whether path exists. Errors other than "not found"
// (like permission issues) are returned.
func FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: checking %s: %w", kerrors.ErrIO, path, err)
}
