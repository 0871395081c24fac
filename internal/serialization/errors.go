package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrTruncated          = errors.New("unexpected end of model stream")
	ErrChecksumMismatch   = errors.New("checksum mismatch: model may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTooManyLayers      = errors.New("too many layers in model")
	ErrBodyTooLarge       = errors.New("model body exceeds maximum size")
	ErrTooManyParameters  = errors.New("layer parameter count exceeds maximum")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "too_many_layers", "body_too_large")
	Field   string // Field involved, if any
	Details string // Additional details
	Err     error  // Matching sentinel, for errors.Is
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", e.Type, e.Field, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap returns the sentinel error so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
