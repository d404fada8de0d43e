//go:build !windows

package webgpu

import (
	"fmt"

	"github.com/born-ml/digits/internal/backend"
	"gonum.org/v1/gonum/mat"
)

// Backend is unavailable off Windows; New always fails.
type Backend struct{}

// New reports that WebGPU is not available on this platform.
func New() (*Backend, error) {
	return nil, fmt.Errorf("webgpu: %w on this platform", backend.ErrUnavailable)
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return false
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// MatMul is never reachable because New never returns a Backend.
func (b *Backend) MatMul(_, _ *mat.Dense) (*mat.Dense, error) {
	return nil, fmt.Errorf("webgpu: %w", backend.ErrUnavailable)
}

// Release is a no-op.
func (b *Backend) Release() {}
