//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package securemem

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func detect() (Protection, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &lim); err == nil && lim.Cur < minLockable {
		return ProtectionNone, fmt.Errorf("RLIMIT_MEMLOCK is %d bytes", lim.Cur)
	}

	page := make([]byte, os.Getpagesize())
	if err := unix.Mlock(page); err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.ENOMEM) {
			return ProtectionNone, err
		}
		return ProtectionNone, fmt.Errorf("checking mlock: %w", err)
	}
	_ = unix.Munlock(page)
	return ProtectionFull, nil
}
