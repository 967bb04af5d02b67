//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly

package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

// fileLock falls back to an exclusively created lock file holding the
// owner's pid. A crash leaves the file behind; Clean removes it once the
// owner is gone.
type fileLock struct {
	f    *os.File
	path string
}

var staleLock = exclLockStale

func tryLock(path string) (*fileLock, error) {
	f, err := tryExclLock(path)
	if err != nil {
		return nil, err
	}
	return &fileLock{f: f, path: path}, nil
}

func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = l.f.Close()
	l.f = nil
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing lock %s: %w", kerrors.ErrIO, l.path, err)
	}
	return nil
}
