//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package vault

import (
	"errors"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"golang.org/x/sys/unix"
)

// fileLock is an flock(2) lock on an owner-only lock file. The file itself
// is left in place; only the lock on it matters.
type fileLock struct {
	f    *os.File
	path string
}

// staleLock is always false here: the kernel drops an flock when its
// holder dies.
var staleLock = func(string) bool { return false }

func tryLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: opening lock %s: %w", kerrors.ErrIO, path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errLocked
		}
		return nil, fmt.Errorf("%w: locking %s: %w", kerrors.ErrIO, path, err)
	}
	return &fileLock{f: f, path: path}, nil
}

func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	if err != nil {
		return fmt.Errorf("%w: releasing %s: %w", kerrors.ErrIO, l.path, err)
	}
	return nil
}
