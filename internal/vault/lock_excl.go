package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

// tryExclLock creates path exclusively and records the holder's pid in it.
// It is the lock on platforms without flock(2).
func tryExclLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, errLocked
		}
		return nil, fmt.Errorf("%w: creating lock %s: %w", kerrors.ErrIO, path, err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: writing lock %s: %w", kerrors.ErrIO, path, err)
	}
	return f, nil
}

// processAlive reports whether pid names a running process. os.FindProcess
// only fails for dead processes on platforms that open a handle, so
// elsewhere every holder counts as alive.
var processAlive = func(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

// exclLockStale reports whether the lock file at path was left by a
// process that is gone. A missing, empty or unreadable file is not stale.
func exclLockStale(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return false
	}
	return !processAlive(pid)
}
