// Package security validates filesystem paths before the pipeline writes
// output products.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks that a file path resolves inside the
// given output root. It prevents path traversal by ensuring the cleaned
// absolute path does not escape the root, including through symlinked
// parent directories.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	cleanPath := filepath.Clean(filePath)

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output root path: %w", err)
	}

	// Resolve symlinks where the paths exist. The output root and most of
	// the target path may not exist yet on a first run; walk up to the
	// nearest existing ancestor so a symlinked parent cannot redirect the
	// write outside the root.
	canonicalPath := canonicalize(absPath)
	canonicalSafeDir := canonicalize(absSafeDir)

	relPath, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside output root: %w", err)
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}

	return nil
}

// canonicalize resolves symlinks for path. If path does not exist it
// resolves the nearest existing ancestor and rejoins the remaining
// components.
func canonicalize(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}

	checkPath := path
	for {
		parentDir := filepath.Dir(checkPath)
		if parentDir == checkPath {
			return path
		}
		if resolved, err := filepath.EvalSymlinks(parentDir); err == nil {
			relToParent, relErr := filepath.Rel(parentDir, path)
			if relErr != nil {
				return path
			}
			return filepath.Join(resolved, relToParent)
		}
		checkPath = parentDir
	}
}

// SanitizeFilename makes a safe filename from an arbitrary string. It replaces
// any characters that are not ASCII letters, digits, dot, underscore or dash
// with an underscore, collapses repeated underscores and trims the result.
// Used when embedding granule basenames into output file names.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	const maxLen = 128
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
