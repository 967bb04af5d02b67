package securemem

import (
	"fmt"
	"os"
	"sync"
)

// Protection indicates how well secrets are protected in memory.
type Protection int

const (
	// ProtectionNone means secrets are heap allocated and only zeroed on release.
	ProtectionNone Protection = iota
	// ProtectionFull means secrets are mlocked memguard buffers.
	ProtectionFull
)

func (p Protection) String() string {
	if p == ProtectionFull {
		return "full"
	}
	return "none"
}

// minLockable is the RLIMIT_MEMLOCK below which memguard would run out of
// lockable pages after a handful of secrets.
const minLockable = 1 << 20

var (
	detectOnce sync.Once
	level     Protection
)

func defaultWarn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[warn] "+format+"\n", args...)
}

// Init checks the platform once and returns the protection level used for
// every Secret. warn receives a message when memory cannot be locked.
// Later calls return the cached level and ignore warn.
func Init(warn func(format string, args ...any)) Protection {
	detectOnce.Do(func() {
		lvl, err := detect()
		level = lvl
		if lvl != ProtectionFull && warn != nil {
			warn("memory locking unavailable (%v); secrets will be zeroed but may be swapped", err)
		}
	})
	return level
}

// Level returns the protection level, probing first if needed.
func Level() Protection {
	return Init(defaultWarn)
}
