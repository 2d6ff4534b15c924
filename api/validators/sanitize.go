package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims surrounding whitespace, collapses internal runs of
// whitespace to one space and truncates to maxLen runes when maxLen > 0.
func SanitizeString(input string, maxLen int) string {
	out := strings.Join(strings.FieldsFunc(input, unicode.IsSpace), " ")
	if maxLen <= 0 {
		return out
	}
	if runes := []rune(out); len(runes) > maxLen {
		return strings.TrimRightFunc(string(runes[:maxLen]), unicode.IsSpace)
	}
	return out
}
