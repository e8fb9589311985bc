package redact

import (
	"strings"
)

// String masks the middle half of s. Strings shorter than 4 bytes are fully masked.
func String(s string) string {
	l := len(s)
	if l < 4 {
		return strings.Repeat("*", l)
	}

	head, tail := l/4, l-l/4

	return s[:head] + strings.Repeat("*", tail-head) + s[tail:]
}
