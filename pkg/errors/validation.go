package errors

import (
	"strings"
	"unicode"
)

// MaxNameLength is the longest export name accepted, leaving room for a file
// extension within common 255-byte file name limits.
const MaxNameLength = 240

// ValidateName validates an export name for use as a file base name or a
// document key. It rejects names that could escape the output directory.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 240 bytes
//   - No control characters or null bytes
//   - No path separators (/ or \)
//   - Not "." or ".."
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "export name cannot be empty")
	}

	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "export name too long (max %d bytes)", MaxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "export name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "export name cannot contain path separators: %q", name)
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidInput, "export name cannot be %q", name)
	}

	return nil
}

// ValidateRounds validates a layout round budget. Zero is valid and means
// no layout.
func ValidateRounds(rounds int) error {
	if rounds < 0 {
		return New(ErrCodeInvalidInput, "layout rounds must be >= 0, got %d", rounds)
	}
	return nil
}

// ValidateFormat validates an export format against the supported set.
func ValidateFormat(format string, supported []string) error {
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "unsupported format %q (want one of %s)", format, strings.Join(supported, ", "))
}
