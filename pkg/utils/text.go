// Package utils provides shared text and logging helpers.
package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns s cut to maxLen runes with trailing whitespace removed and
// suffix appended. s is returned unchanged when it fits or maxLen <= 0.
func Truncate(s string, maxLen int, suffix string) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return strings.TrimRight(s[:i], " \t\r\n") + suffix
		}
		n++
	}
	return s
}
