package password

import (
	"errors"
	"math"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
)

func TestEntropy(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"Empty", "", 0},
		{"LowerOnly", "abc", 3 * math.Log2(26)},
		{"AllClasses", "Ab1!", 4 * math.Log2(94)},
		{"OrderIndependent", "!1bA", 4 * math.Log2(94)},
		{"Repeated", "aaaa", 4 * math.Log2(26)},
		{"LowerDigits", "abc123", 6 * math.Log2(36)},
		{"SymbolsOnly", "!!", 2 * math.Log2(32)},
		{"SpaceIsNotAClass", "   ", 0},
		{"UnicodeCountsBytes", "ééa", 5 * math.Log2(26)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Entropy([]byte(tc.input))
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("Entropy(%q) = %f, expected %f", tc.input, got, tc.expected)
			}
		})
	}
}

func TestEntropyKnownValue(t *testing.T) {
	got := Entropy([]byte("abc"))
	if math.Abs(got-14.10) > 0.01 {
		t.Errorf("expected about 14.10 bits, got %f", got)
	}
}

func TestRating(t *testing.T) {
	tests := []struct {
		bits     float64
		expected string
	}{
		{0, "Very Weak"},
		{35, "Very Weak"},
		{35.5, "Weak"},
		{59, "Weak"},
		{60, "Strong"},
		{119, "Strong"},
		{120, "Very Strong"},
	}

	for _, tc := range tests {
		if got := Rating(tc.bits); got != tc.expected {
			t.Errorf("Rating(%v) = %q, expected %q", tc.bits, got, tc.expected)
		}
	}
}

func TestGenerateLengthAndAlphabet(t *testing.T) {
	tests := []struct {
		name    string
		classes Class
	}{
		{"Lower", Lower},
		{"Digits", Digit},
		{"LowerUpper", Lower | Upper},
		{"All", All},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Generate(64, tc.classes)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			defer s.Destroy()

			alphabet := tc.classes.Alphabet()
			_ = s.Use(func(b []byte) error {
				if len(b) != 64 {
					t.Errorf("expected 64 characters, got %d", len(b))
				}
				for _, c := range b {
					if !strings.ContainsRune(alphabet, rune(c)) {
						t.Errorf("character %q outside alphabet", c)
					}
				}
				return nil
			})
		})
	}
}

func TestGenerateDistribution(t *testing.T) {
	s, err := Generate(1000, All)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer s.Destroy()

	counts := map[Class]int{}
	_ = s.Use(func(b []byte) error {
		for _, c := range b {
			switch {
			case strings.IndexByte(lowerChars, c) >= 0:
				counts[Lower]++
			case strings.IndexByte(upperChars, c) >= 0:
				counts[Upper]++
			case strings.IndexByte(digitChars, c) >= 0:
				counts[Digit]++
			default:
				counts[Symbol]++
			}
		}
		return nil
	})

	pool := float64(len(All.Alphabet()))
	expected := map[Class]float64{
		Lower:  1000 * 26 / pool,
		Upper:  1000 * 26 / pool,
		Digit:  1000 * 10 / pool,
		Symbol: 1000 * 32 / pool,
	}
	for class, want := range expected {
		got := float64(counts[class])
		if got < want*0.5 || got > want*1.5 {
			t.Errorf("class %d: got %v characters, expected about %v", class, got, want)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(0, All); !errors.Is(err, kerrors.ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength for 0, got %v", err)
	}
	if _, err := Generate(-5, All); !errors.Is(err, kerrors.ErrUserInput) {
		t.Errorf("expected ErrUserInput for -5, got %v", err)
	}
	if _, err := Generate(MaxLength+1, All); !errors.Is(err, kerrors.ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength above MaxLength, got %v", err)
	}
	if _, err := Generate(12, 0); !errors.Is(err, kerrors.ErrNoClasses) {
		t.Errorf("expected ErrNoClasses, got %v", err)
	}
}

func TestSymbolPoolSize(t *testing.T) {
	if len(symbolChars) != symbolPool {
		t.Fatalf("symbol alphabet has %d characters, pool assumes %d", len(symbolChars), symbolPool)
	}
}
