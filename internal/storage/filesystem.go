package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	unsafeRe     = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)
)

// SanitizeFilename turns a user-supplied name into a safe file name.
// Whitespace runs become a single hyphen; anything else outside
// alphanumerics, dots, hyphens and underscores becomes an underscore.
func SanitizeFilename(name string) string {
	s := whitespaceRe.ReplaceAllString(strings.TrimSpace(name), "-")
	s = unsafeRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, ".")
	if s == "" {
		return "download"
	}
	return s
}

// WriteFile writes data to dir/name, creating dir if needed. The file is
// written to a temporary name first and renamed so a failed download never
// leaves a truncated artifact behind.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	dest := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming into %s: %w", dest, err)
	}
	return dest, nil
}

// EnsureDir creates a directory and all parent directories if they don't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
