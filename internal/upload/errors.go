package upload

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedType matches any UnsupportedTypeError.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrTooLarge matches any TooLargeError.
	ErrTooLarge = errors.New("file too large")
	// ErrNotFound is returned by a Catalog for unknown ids.
	ErrNotFound = errors.New("upload not found")
)

// UnsupportedTypeError rejects a filename whose extension is not allowlisted.
type UnsupportedTypeError struct {
	Kind Kind
	Ext  string
}

func (e *UnsupportedTypeError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("Unsupported %s type: %s. Allowed: %s",
		e.Kind.label(), ext, strings.Join(e.Kind.Extensions(), ", "))
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// TooLargeError rejects an upload over the configured ceiling.
type TooLargeError struct {
	MaxMB int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("File too large (> %d MB)", e.MaxMB)
}

func (e *TooLargeError) Is(target error) bool {
	return target == ErrTooLarge
}
