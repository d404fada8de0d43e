package network

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is matched by every *DimensionError.
var ErrDimensionMismatch = errors.New("dimension mismatch")

var errNoLayers = fmt.Errorf("%w: no weight matrices", ErrDimensionMismatch)

// DimensionError reports a weight matrix whose row count does not match
// the width of the activation fed into it.
type DimensionError struct {
	Layer int // Zero-based index into the weight sequence
	Rows  int // Row count of the weight matrix, 0 for a nil matrix
	Want  int // Width of the incoming activation
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: layer %d has %d rows, incoming activation width is %d",
		ErrDimensionMismatch, e.Layer, e.Rows, e.Want)
}

// Unwrap lets errors.Is match ErrDimensionMismatch.
func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}
