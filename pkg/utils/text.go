package utils

// Truncate shortens s to at most max runes, never splitting a multi-byte
// character. Byte-length inputs within the limit come back unchanged.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
