package strings

import (
	"strings"
)

// DefaultValueMaxLen is the widest value shown in table output.
const DefaultValueMaxLen = 100

// MinTruncateLen is the minimum maxLen value for Truncate.
// Smaller values would not leave room for one character plus "...".
const MinTruncateLen = 4

var lineBreaks = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`)

// Truncate keeps s on a single line and shortens it to at most maxLen runes,
// ending in "..." when cut. Line breaks are shown as escapes; other
// whitespace is kept as is.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = lineBreaks.Replace(s)

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
