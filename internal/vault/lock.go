package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

var pollInterval = 100 * time.Millisecond

// errLocked is returned by tryLock when another holder has the lock.
var errLocked = errors.New("lock is held")

// lock takes the exclusive advisory lock of v, polling for up to
// LockTimeout.
func (m *Manager) lock(ctx context.Context, v Vault) (*fileLock, error) {
	path := v.Path + lockExt
	deadline := time.Now().Add(m.cfg.LockTimeout)

	for {
		l, err := tryLock(path)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, errLocked) {
			return nil, err
		}
		if m.cfg.LockTimeout <= 0 || time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %q is open elsewhere", kerrors.ErrVaultBusy, v.Name)
		}

		m.log.Debugf("Vault %s is locked, retrying", v.Name)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
