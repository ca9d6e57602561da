package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxIDLength bounds node and edge identifiers. IDs end up quoted in DOT
// source and as SVG attribute values, so they are kept short and printable.
const maxIDLength = 512

// ValidateID validates a node or edge identifier.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters (including newlines and null bytes)
//   - Maximum length of 512 bytes
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidGraph, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "%s id %q contains control characters", kind, id)
		}
	}
	return nil
}

// ValidateZoomFactor checks that a zoom factor is a finite positive number.
func ValidateZoomFactor(factor float64) error {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return New(ErrCodeInvalidZoomFactor, "zoom factor must be a finite number > 0, got %v", factor)
	}
	return nil
}

// ValidateFormat checks that format is one of the allowed output formats.
func ValidateFormat(format string, allowed map[string]bool) error {
	if !allowed[strings.ToLower(format)] {
		return New(ErrCodeInvalidFormat, "unsupported output format %q", format)
	}
	return nil
}
