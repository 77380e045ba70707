package utils

import "strings"

const ellipsis = "..."

// TruncateForLog trims s and cuts it to limit runes, marking the cut with an ellipsis.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}
