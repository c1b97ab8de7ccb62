package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Size limits (in bytes)
const (
	MaxJSONSize = 1 * 1024 * 1024 // 1MB - maximum request or seed document size
)

// String length limits
const (
	MaxIDLength   = 128
	MaxNameLength = 256
)

// SafeIDPattern allows alphanumeric, hyphens, underscores and dots.
// Detected browser slugs ("chrome"), legacy numeric ids and ULIDs all match.
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateID checks that an entity id taken from a URL or form is sane
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("id exceeds maximum length of %d", MaxIDLength)
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("id contains invalid characters")
	}
	return nil
}

// ValidateSize checks that a payload is within the given limit
func ValidateSize(data []byte, maxSize int) error {
	if len(data) > maxSize {
		return fmt.Errorf("payload size %d bytes exceeds maximum %d bytes", len(data), maxSize)
	}
	return nil
}
