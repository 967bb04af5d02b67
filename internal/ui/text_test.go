package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatterWithColor(t *testing.T) {
	os.Unsetenv("NO_COLOR")
	color.NoColor = false
	defer func() { color.NoColor = true }()

	result := Code.Sprint("fmp list")
	if strings.Contains(result, "`") {
		t.Errorf("Code.Sprint should not contain backticks when color is enabled, got: %s", result)
	}
	if !strings.Contains(result, "\x1b[") {
		t.Errorf("Code.Sprint should contain ANSI escape codes when color is enabled, got: %s", result)
	}
}

func TestFormatterWithNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name      string
		formatter Formatter
		input     string
		want      string
	}{
		{"Code adds backticks", Code, "fmp create-vault", "`fmp create-vault`"},
		{"Path has no decoration", Path, "vaults/personal.tar.gz.gpg", "vaults/personal.tar.gz.gpg"},
		{"Success has no decoration", Success, "✓", "✓"},
		{"Error has no decoration", Error, "✗", "✗"},
		{"Highlight adds quotes", Highlight, "alice@example.com", "'alice@example.com'"},
		{"Account has no decoration", Account, "github", "github"},
		{"Vault adds brackets", Vault, "personal", "[personal]"},
		{"Muted adds parentheses", Muted, "empty", "(empty)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.formatter.Sprint(tt.input)
			if got != tt.want {
				t.Errorf("%s.Sprint(%q) = %q, want %q", tt.name, tt.input, got, tt.want)
			}
		})
	}
}

func TestSprintf(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := Highlight.Sprintf("%d bits", 42); got != "'42 bits'" {
		t.Errorf("unexpected Sprintf output %q", got)
	}
}

func TestEnsureNewline(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "\n"},
		{"done", "done\n"},
		{"done\n", "done\n"},
	}
	for _, tt := range tests {
		if got := EnsureNewline(tt.input); got != tt.want {
			t.Errorf("EnsureNewline(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestForRating(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if ForRating("Very Weak").color != Error.color {
		t.Error("expected Very Weak to use the error formatter")
	}
	if ForRating("Weak").color != Warning.color {
		t.Error("expected Weak to use the warning formatter")
	}
	if ForRating("Very Strong").color != Success.color {
		t.Error("expected Very Strong to use the success formatter")
	}
}
