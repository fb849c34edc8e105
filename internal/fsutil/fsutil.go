package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SafeJoin resolves rel under root and fails with ErrSecurityViolation when
// the result would land outside root. Absolute rel values are treated as
// relative to root.
func SafeJoin(root string, rel ...string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	parts := append([]string{absRoot}, rel...)
	target := filepath.Clean(filepath.Join(parts...))
	if target != absRoot && !strings.HasPrefix(target, absRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("%q: %w", filepath.Join(rel...), extractionModel.ErrSecurityViolation)
	}
	return target, nil
}

// ExtractionDir resolves an extraction id to its folder; ids may not contain separators.
func ExtractionDir(uploadsDir, id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("extraction id %q: %w", id, extractionModel.ErrSecurityViolation)
	}
	return SafeJoin(uploadsDir, id)
}

// SanitizeName replaces anything outside [a-zA-Z0-9_-] with an underscore.
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// ToSlash returns rel with forward slashes for use in URLs and JSON.
func ToSlash(rel string) string {
	return filepath.ToSlash(rel)
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
