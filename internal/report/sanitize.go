package report

import "strings"

// Sanitize removes the control characters spreadsheet formats reject:
// 0x00-0x08, 0x0B, 0x0C and 0x0E-0x1F. Tab, newline and carriage return stay.
// Every other byte is kept as is, including invalid UTF-8.
func Sanitize(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { return r < 0x20 && illegal(byte(r)) }) < 0 {
		return s
	}

	// The rejected characters are ASCII, so they never occur inside a multibyte sequence.
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !illegal(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func illegal(c byte) bool {
	switch {
	case c <= 0x08:
		return true
	case c == 0x0B || c == 0x0C:
		return true
	case c >= 0x0E && c <= 0x1F:
		return true
	default:
		return false
	}
}
