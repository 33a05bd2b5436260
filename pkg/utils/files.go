package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output path errors.
var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrOutputExists    = errors.New("output already exists")
)

// ValidateName rejects names that would escape their directory or are empty.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidFilename)
	}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilename, name)
	}

	return nil
}

// DerivedPath returns path with its extension replaced by suffix + ext,
// e.g. DerivedPath("a/tweets.json", "_processed", ".json") = "a/tweets_processed.json".
func DerivedPath(path, suffix, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix + ext
}

// EnsureAbsent returns ErrOutputExists when any of paths already exists.
func EnsureAbsent(paths ...string) error {
	for _, p := range paths {
		_, err := os.Stat(p)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrOutputExists, p)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", p, err)
		}
	}

	return nil
}

// IsHidden reports whether a file name starts with a dot.
func IsHidden(name string) bool {
	return strings.HasPrefix(filepath.Base(name), ".")
}
