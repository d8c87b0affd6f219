// Package fsutil holds small file-name helpers shared by the CLI and the
// cookie store.
package fsutil

import (
	"strings"
	"unicode"
)

// DefaultMaxNameLen caps SafeFilename output when no limit is given.
const DefaultMaxNameLen = 100

// SafeFilename turns s into a string usable as a file name component on
// every platform. Reserved characters and whitespace become underscores,
// leading and trailing dots and underscores are dropped and the result is
// cut to maxLen runes. Returns "" when nothing usable remains.
func SafeFilename(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLen
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsSpace(r), unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), "._")
	if runes := []rune(out); len(runes) > maxLen {
		out = strings.TrimRight(string(runes[:maxLen]), "._")
	}
	return out
}
