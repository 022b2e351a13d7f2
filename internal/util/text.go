package util

import "unicode/utf8"

// Truncate returns the longest prefix of s that is at most maxBytes long
// and does not split a UTF-8 sequence
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
