package util

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// WritablePath returns the cleaned WRITABLE_PATH environment variable when it is set.
// It accepts both uppercase and lowercase variants for compatibility with existing conventions.
func WritablePath() string {
	for _, key := range []string{"WRITABLE_PATH", "writable_path"} {
		if value, ok := os.LookupEnv(key); ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return filepath.Clean(trimmed)
			}
		}
	}
	return ""
}

// ResolvePath joins a relative path onto WritablePath when one is set.
// Absolute paths and an unset WRITABLE_PATH return p unchanged.
func ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if base := WritablePath(); base != "" {
		return filepath.Join(base, p)
	}
	return p
}

// MaskPIN replaces every character of pin with '*'.
func MaskPIN(pin string) string {
	return strings.Repeat("*", utf8.RuneCountInString(pin))
}

// HideCardNumber obscures a card number for logging purposes, showing only the last few characters.
func HideCardNumber(number string) string {
	n := utf8.RuneCountInString(number)
	if n <= 4 {
		return number
	}
	runes := []rune(number)
	return "..." + string(runes[n-4:])
}
