package util

import (
	"regexp"
	"strings"
	"unicode"

	"arkive/pkg/apierror"
)

// Asset filenames end up inside object keys and Content-Disposition headers.
var unsafeFilenameChars = regexp.MustCompile("[<>:\"/\\\\|?*#%{}^~`\\[\\]]")

const maxFilenameRunes = 255

// reservedDeviceName reports names that Windows clients cannot save, such as
// CON, NUL, COM1 or LPT9, with or without an extension.
func reservedDeviceName(name string) bool {
	stem := strings.ToUpper(name)
	if idx := strings.Index(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}

	switch stem {
	case "CON", "PRN", "AUX", "NUL":
		return true
	}
	if len(stem) == 4 && (strings.HasPrefix(stem, "COM") || strings.HasPrefix(stem, "LPT")) {
		return stem[3] >= '1' && stem[3] <= '9'
	}
	return false
}

// SanitizeFilename drops control and format characters, replaces characters
// that are unsafe in object keys and rejects empty, dot-prefixed or
// reserved names.
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apierror.BadRequest.WithDetails("filename cannot be empty")
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, trimmed)
	cleaned = strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(cleaned, "_"))
	if cleaned == "" {
		return "", apierror.BadRequest.WithDetails("filename is invalid after sanitization: " + trimmed)
	}

	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		cleaned = string(runes[:maxFilenameRunes])
	}

	if strings.HasPrefix(cleaned, ".") {
		return "", apierror.BadRequest.WithDetails("filename cannot start with a dot: " + cleaned)
	}
	if reservedDeviceName(cleaned) {
		return "", apierror.BadRequest.WithDetails("reserved filename is not allowed: " + cleaned)
	}

	return cleaned, nil
}
