package utils

import (
	"strings"

	"github.com/PolarWolf314/fmp/internal/ui"
)

// FormatNames formats a slice of names into an indented bullet list.
func FormatNames(names []string, f ui.Formatter) string {
	var b strings.Builder
	for _, name := range names {
		b.WriteString("  - ")
		b.WriteString(f.Sprint(name))
		b.WriteString("\n")
	}
	return b.String()
}
