package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap      = errors.New("layer offsets overlap")
	ErrOutOfBounds        = errors.New("layer extends beyond data section")
	ErrTooManyLayers      = errors.New("too many layers in file")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrNoLayers           = errors.New("no layers")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // e.g. "offset_overlap", "bad_shape"
	Layer   string // Primary layer name involved
	Layer2  string // Secondary layer name (overlap errors)
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Layer2 != "" {
		return fmt.Sprintf("%s: layers %q and %q: %s", e.Type, e.Layer, e.Layer2, e.Details)
	}
	if e.Layer != "" {
		return fmt.Sprintf("%s: layer %q: %s", e.Type, e.Layer, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Is maps validation types onto the matching sentinel errors.
func (e *ValidationError) Is(target error) bool {
	switch e.Type {
	case "offset_overlap":
		return target == ErrOffsetOverlap
	case "out_of_bounds":
		return target == ErrOutOfBounds
	case "too_many_layers":
		return target == ErrTooManyLayers
	}
	return false
}
