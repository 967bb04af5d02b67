package password

import (
	"crypto/rand"
	"fmt"
	"math/big"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
)

// Class is a bit set of character classes.
type Class uint8

const (
	Lower Class = 1 << iota
	Upper
	Digit
	Symbol

	All = Lower | Upper | Digit | Symbol
)

// DefaultLength is the length used when none is asked for.
const DefaultLength = 16

// MaxLength bounds Generate so a typo cannot allocate an absurd secret.
const MaxLength = 4096

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// Alphabet returns the characters drawn from for the classes in c.
func (c Class) Alphabet() string {
	var s string
	if c&Lower != 0 {
		s += lowerChars
	}
	if c&Upper != 0 {
		s += upperChars
	}
	if c&Digit != 0 {
		s += digitChars
	}
	if c&Symbol != 0 {
		s += symbolChars
	}
	return s
}

// Generate returns a random password of length characters. Each character
// is drawn independently and uniformly from the union of classes.
func Generate(length int, classes Class) (*securemem.Secret, error) {
	if length <= 0 || length > MaxLength {
		return nil, fmt.Errorf("%w: %d (must be between 1 and %d)", kerrors.ErrInvalidLength, length, MaxLength)
	}
	alphabet := classes.Alphabet()
	if alphabet == "" {
		return nil, kerrors.ErrNoClasses
	}

	out := make([]byte, length)
	limit := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			securemem.Wipe(out)
			return nil, fmt.Errorf("reading random source: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return securemem.New(out), nil
}
