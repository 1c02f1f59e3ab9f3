package shared

import "unicode/utf8"

// TruncateRunes caps s at max runes. Slicing by rune keeps multi-byte
// sequences intact, so the result is always valid UTF-8.
func TruncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
