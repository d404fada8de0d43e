package tensor

import "fmt"

// Shape represents the dimensions of a matrix or image batch.
type Shape []int

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Matrix2D reports the rows and columns of a rank-2 shape.
func (s Shape) Matrix2D() (rows, cols int, err error) {
	if len(s) != 2 {
		return 0, 0, fmt.Errorf("expected rank-2 shape, got %v", s)
	}
	if err := s.Validate(); err != nil {
		return 0, 0, err
	}
	return s[0], s[1], nil
}

// String formats the shape as [d0×d1×...].
func (s Shape) String() string {
	out := "["
	for i, dim := range s {
		if i > 0 {
			out += "×"
		}
		out += fmt.Sprint(dim)
	}
	return out + "]"
}
