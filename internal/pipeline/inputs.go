package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInputNotFound is returned for a missing input that does not look like a resume file.
var ErrInputNotFound = errors.New("input not found")

// CollectFiles expands the inputs into a file list. Directories contribute
// their direct children with one of the extensions, sorted by name. Files are
// kept as given so unsupported ones still get a record. A missing path is kept
// only when it carries one of the extensions, otherwise it is treated as a
// mistyped directory and fails with ErrInputNotFound.
func CollectFiles(inputs []string, extensions []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var files []string
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		info, err := os.Stat(input)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if !looksLikeFile(input, allowed) {
					return nil, fmt.Errorf("%w: %s", ErrInputNotFound, input)
				}
				files = append(files, input)
				continue
			}
			return nil, fmt.Errorf("inspect input %s: %w", input, err)
		}
		if !info.IsDir() {
			files = append(files, input)
			continue
		}

		entries, err := os.ReadDir(input)
		if err != nil {
			return nil, fmt.Errorf("read input directory %s: %w", input, err)
		}

		found := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
				continue
			}
			found = append(found, filepath.Join(input, entry.Name()))
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func looksLikeFile(path string, allowed map[string]struct{}) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return false
	}
	_, ok := allowed[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadJobDescription treats arg as a path when it names a readable file and as
// the description text otherwise.
func ReadJobDescription(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("job description is empty")
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("read job description %s: %w", arg, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", fmt.Errorf("job description file %s is empty", arg)
		}
		return text, nil
	}
	return arg, nil
}
