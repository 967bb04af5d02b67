package securemem

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
)

const redacted = "[REDACTED]"

var (
	// ErrDestroyed is returned by Use after Destroy.
	ErrDestroyed = errors.New("secret has been destroyed")

	// ErrNotSerializable is returned by every marshal method.
	ErrNotSerializable = errors.New("secrets cannot be serialized")
)

// Secret holds a password, passphrase or decrypted bundle.
//
// When the platform allows it the bytes live in a frozen memguard
// LockedBuffer, which is mlocked and surrounded by guard pages. Otherwise
// they live on the heap and are zeroed on Destroy.
type Secret struct {
	mu        sync.Mutex
	locked    *memguard.LockedBuffer
	plain     []byte
	destroyed bool
}

// New moves b into a Secret and wipes b.
func New(b []byte) *Secret {
	return newWith(b, Init(defaultWarn))
}

func newWith(b []byte, level Protection) *Secret {
	s := &Secret{}
	if len(b) == 0 {
		return s
	}
	if level == ProtectionFull {
		s.locked = memguard.NewBufferFromBytes(b)
		s.locked.Freeze()
		return s
	}
	s.plain = make([]byte, len(b))
	copy(s.plain, b)
	memguard.WipeBytes(b)
	return s
}

// Use calls fn with the secret bytes. The slice is only valid inside fn and
// must not be modified or retained.
func (s *Secret) Use(fn func([]byte) error) error {
	if s == nil {
		return ErrDestroyed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	if s.locked != nil {
		return fn(s.locked.Bytes())
	}
	return fn(s.plain)
}

// Len returns the size of the secret in bytes.
func (s *Secret) Len() int {
	n := 0
	_ = s.Use(func(b []byte) error {
		n = len(b)
		return nil
	})
	return n
}

// Equal compares two secrets in constant time.
func (s *Secret) Equal(other *Secret) bool {
	if s == other {
		return s != nil
	}
	equal := false
	err := s.Use(func(a []byte) error {
		return other.Use(func(b []byte) error {
			equal = subtle.ConstantTimeCompare(a, b) == 1
			return nil
		})
	})
	return err == nil && equal
}

// Clone returns an independent copy.
func (s *Secret) Clone() (*Secret, error) {
	var out *Secret
	err := s.Use(func(b []byte) error {
		tmp := make([]byte, len(b))
		copy(tmp, b)
		out = New(tmp)
		return nil
	})
	return out, err
}

// Destroy zeroes and releases the secret. It is safe to call more than once.
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	if s.locked != nil {
		s.locked.Destroy()
		s.locked = nil
	}
	if s.plain != nil {
		memguard.WipeBytes(s.plain)
		s.plain = nil
	}
}

// Destroyed reports whether Destroy has been called.
func (s *Secret) Destroyed() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

func (s *Secret) String() string   { return redacted }
func (s *Secret) GoString() string { return redacted }

// Format keeps %x, %q and friends from printing the contents.
func (s *Secret) Format(f fmt.State, verb rune) {
	_, _ = f.Write([]byte(redacted))
}

func (s *Secret) MarshalJSON() ([]byte, error)   { return nil, ErrNotSerializable }
func (s *Secret) MarshalText() ([]byte, error)   { return nil, ErrNotSerializable }
func (s *Secret) MarshalBinary() ([]byte, error) { return nil, ErrNotSerializable }

// Wipe zeroes b in place.
func Wipe(b []byte) {
	memguard.WipeBytes(b)
}

// Purge destroys every memguard buffer in the process. Call it on exit.
func Purge() {
	memguard.Purge()
}
