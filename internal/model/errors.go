package model

import (
	"errors"
	"fmt"
)

// ErrWeightLoad is matched by every *LoadError.
var ErrWeightLoad = errors.New("weight load failed")

// LoadError reports a weight artifact that could not be found, read or validated.
type LoadError struct {
	ID   string // Model identifier, empty when loading by path
	Path string // Artifact path, empty when no file was resolved
	Err  error  // Underlying cause
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	switch {
	case e.ID != "" && e.Path != "":
		return fmt.Sprintf("%s: model %q (%s): %v", ErrWeightLoad, e.ID, e.Path, e.Err)
	case e.ID != "":
		return fmt.Sprintf("%s: model %q: %v", ErrWeightLoad, e.ID, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", ErrWeightLoad, e.Path, e.Err)
	}
}

// Unwrap exposes both ErrWeightLoad and the underlying cause to errors.Is.
func (e *LoadError) Unwrap() []error {
	return []error{ErrWeightLoad, e.Err}
}
