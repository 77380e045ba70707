package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when no source holds a value.
var ErrNotConfigured = errors.New("not configured")

// Source describes where a secret can come from. File wins over the
// environment variables, which are tried in order.
type Source struct {
	// Name is used in error messages. The secret itself never is.
	Name string
	File string
	Env  []string
}

// Load returns the trimmed secret or an error when none of the sources
// provides a usable value.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	for _, key := range src.Env {
		if secret := strings.TrimSpace(os.Getenv(key)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
}

// LoadOptional is Load for secrets the program can run without. A missing
// secret yields an empty string; a broken file is still an error.
func LoadOptional(src Source) (string, error) {
	secret, err := Load(src)
	if errors.Is(err, ErrNotConfigured) {
		return "", nil
	}
	return secret, err
}

// Describe names the source that would be used, for logs.
func Describe(src Source) string {
	if strings.TrimSpace(src.File) != "" {
		return "file"
	}
	for _, key := range src.Env {
		if strings.TrimSpace(os.Getenv(key)) != "" {
			return "env:" + key
		}
	}
	return "none"
}
