package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// IdentityLength is the length of a conversion identity in hex characters.
const IdentityLength = 32

// identityRegex matches a conversion identity: fixed-length lower-case hex.
var identityRegex = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ValidateIdentity validates a conversion identity before it is used to build
// a filesystem path. Anything other than IdentityLength lower-case hex
// characters is rejected, which rules out separators and traversal sequences.
func ValidateIdentity(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentity, "identity cannot be empty")
	}
	if !identityRegex.MatchString(id) {
		return New(ErrCodeInvalidIdentity, "identity must be %d lower-case hex characters: %q", IdentityLength, id)
	}
	return nil
}

// ValidateDir validates a configured directory path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidateDir(path string) error {
	if path == "" {
		return New(ErrCodeInternal, "directory cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInternal, "directory path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInternal, "directory path contains invalid characters")
		}
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInternal, "directory path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
