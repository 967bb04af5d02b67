//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly

package securemem

import "errors"

func detect() (Protection, error) {
	return ProtectionNone, errors.New("memory locking is not supported on this platform")
}
