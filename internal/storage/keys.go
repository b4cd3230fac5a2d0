package storage

import (
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"arkive/pkg/apierror"
)

// CollectionPrefix is the key prefix under which every object of a collection lives.
func CollectionPrefix(collectionID string) string {
	return "collections/" + collectionID + "/"
}

// NewObjectKey returns a fresh key for a sanitized filename inside the collection prefix.
func NewObjectKey(collectionID string, filename string) string {
	return CollectionPrefix(collectionID) + uuid.NewString() + "-" + filename
}

// ValidateKey rejects keys with control characters, traversal segments, or
// that resolve outside prefix.
func ValidateKey(prefix string, key string) error {
	normalized := strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	if normalized == "" {
		return apierror.BadRequest.WithDetails("storage key is required")
	}

	if hasControlCharacters(normalized) {
		return apierror.BadRequest.WithDetails("storage key contains invalid characters")
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return apierror.Forbidden.WithDetails("storage key traversal attempt detected")
		}
	}

	cleaned := path.Clean("/" + normalized)[1:]
	if !strings.HasPrefix(cleaned, prefix) || cleaned == strings.TrimSuffix(prefix, "/") {
		return apierror.Forbidden.WithDetails("storage key is outside the collection")
	}

	return nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
