package module

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NormalizeSeparators rewrites both path separator styles to the native one
// so references written on one OS resolve on another.
func NormalizeSeparators(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}

// Canonical returns the graph key for p: separators normalized, absolute
// and cleaned. Every map lookup and insertion goes through it.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(NormalizeSeparators(p))
	if err != nil {
		return "", fmt.Errorf("canonical path %q: %w", p, err)
	}
	return filepath.Clean(abs), nil
}

// IsFileReference reports whether a raw "using module" argument names a file
// rather than an opaque module: it starts with "." or is already absolute.
func IsFileReference(raw string) bool {
	if strings.HasPrefix(raw, ".") {
		return true
	}
	return isAbs(raw)
}

// ResolveReference resolves a file reference relative to the referencing
// file's directory, then re-resolves that result against workDir. The
// second step only matters when the first yields a relative path, which it
// never does for an absolute fileDir; it is kept so both bases are honored
// the same way everywhere.
func ResolveReference(raw, fileDir, workDir string) string {
	p := resolveAgainst(fileDir, NormalizeSeparators(raw))
	return resolveAgainst(workDir, p)
}

func resolveAgainst(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// isAbs accepts both native absolute paths and slash-rooted paths written
// with either separator.
func isAbs(raw string) bool {
	if filepath.IsAbs(NormalizeSeparators(raw)) {
		return true
	}
	return strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, `\`)
}
