package pipeline

import (
	"errors"
	"fmt"
)

// ErrInputShape is matched by every *ShapeError.
var ErrInputShape = errors.New("invalid input shape")

var errEmptyBatch = fmt.Errorf("%w: empty batch", ErrInputShape)

// ShapeError describes an image batch that is not N×784.
type ShapeError struct {
	Index int // Offending image index, -1 when the whole batch is at fault
	Got   int // Observed length or width
	Want  int // Expected length or width
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: image %d has %d values, expected %d", ErrInputShape, e.Index, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: got %d, expected %d", ErrInputShape, e.Got, e.Want)
}

// Unwrap lets errors.Is match ErrInputShape.
func (e *ShapeError) Unwrap() error {
	return ErrInputShape
}
