package password

import (
	"math"
	"strings"
)

// Pool sizes per character class.
const (
	lowerPool  = 26
	upperPool  = 26
	digitPool  = 10
	symbolPool = 32
)

// Entropy estimates the strength of password in bits as
// length × log2(pool), where pool is the summed size of every character
// class present. Length counts UTF-8 bytes, so a multi-byte character
// weighs as much as its encoding. Bytes outside the four classes add to the
// length but not to the pool.
func Entropy(password []byte) float64 {
	var lower, upper, digit, symbol bool
	length := len(password)

	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.IndexByte(symbolChars, c) >= 0:
			symbol = true
		}
	}

	pool := 0
	if lower {
		pool += lowerPool
	}
	if upper {
		pool += upperPool
	}
	if digit {
		pool += digitPool
	}
	if symbol {
		pool += symbolPool
	}

	if length == 0 || pool <= 1 {
		return 0
	}
	return float64(length) * math.Log2(float64(pool))
}

// Rating labels an entropy value.
func Rating(bits float64) string {
	switch {
	case bits <= 35:
		return "Very Weak"
	case bits <= 59:
		return "Weak"
	case bits <= 119:
		return "Strong"
	default:
		return "Very Strong"
	}
}
