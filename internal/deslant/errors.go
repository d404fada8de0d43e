package deslant

import (
	"errors"
	"fmt"
)

// ErrDegenerateGeometry is matched by every *DegenerateGeometryError.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// DegenerateGeometryError reports an image whose significant pixels have
// zero spread along one axis, so no slant can be estimated.
type DegenerateGeometryError struct {
	Index       int    // Image index within the batch, -1 for a single image
	Axis        string // "row" or "col"
	Significant int    // Number of significant pixels
}

// Error implements the error interface.
func (e *DegenerateGeometryError) Error() string {
	msg := fmt.Sprintf("%s: %d significant pixels have zero spread along the %s axis",
		ErrDegenerateGeometry, e.Significant, e.Axis)
	if e.Index >= 0 {
		return fmt.Sprintf("image %d: %s", e.Index, msg)
	}
	return msg
}

// Unwrap lets errors.Is match ErrDegenerateGeometry.
func (e *DegenerateGeometryError) Unwrap() error {
	return ErrDegenerateGeometry
}

// Failures maps an error returned by Batch (possibly wrapped) to a slice
// of length n holding the *DegenerateGeometryError of every failed image
// at its index. It returns nil when err carries no indexed image errors.
func Failures(err error, n int) []error {
	var out []error
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case nil:
		case *DegenerateGeometryError:
			if e.Index < 0 || e.Index >= n {
				return
			}
			if out == nil {
				out = make([]error, n)
			}
			out[e.Index] = e
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(e.Unwrap())
		}
	}
	walk(err)
	return out
}
