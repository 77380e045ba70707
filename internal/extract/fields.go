package extract

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const (
	nameLabelWindow = 500
	nameScanLines   = 10
	minNameTokens   = 2
	maxNameTokens   = 4
)

var (
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	phonePattern     = regexp.MustCompile(`\(?\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}`)
	nameLabelPattern = regexp.MustCompile(`(?i)name[ \t]*:[ \t]*([A-Za-z][A-Za-z .'\-]*)`)

	nameStopWords = []string{"resume", "curriculum", "profile"}
)

// Fields are the contact facts recovered from resume text.
type Fields struct {
	Name  string
	Email string
	Phone string
}

// ExtractFields recovers name, email and phone from text. The name is
// best-effort: an explicit label, then the first name-like line, then fallback.
func ExtractFields(text, fallbackName string) Fields {
	name := nameFromLabel(text)
	if name == "" {
		name = nameFromLines(text)
	}
	if name == "" {
		name = fallbackName
	}

	return Fields{
		Name:  name,
		Email: emailPattern.FindString(text),
		Phone: phonePattern.FindString(text),
	}
}

// FallbackName returns the file name without directory and extension.
func FallbackName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func nameFromLabel(text string) string {
	window := []rune(text)
	if len(window) > nameLabelWindow {
		window = window[:nameLabelWindow]
	}

	match := nameLabelPattern.FindStringSubmatch(string(window))
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func nameFromLines(text string) string {
	scanned := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if scanned == nameScanLines {
			break
		}
		scanned++

		if looksLikeName(line) {
			return line
		}
	}
	return ""
}

func looksLikeName(line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) < minNameTokens || len(tokens) > maxNameTokens {
		return false
	}

	for _, token := range tokens {
		first := []rune(token)[0]
		if unicode.IsLetter(first) && !unicode.IsUpper(first) {
			return false
		}
	}

	if strings.IndexFunc(line, unicode.IsDigit) >= 0 {
		return false
	}

	lower := strings.ToLower(line)
	for _, word := range nameStopWords {
		if strings.Contains(lower, word) {
			return false
		}
	}

	return true
}
