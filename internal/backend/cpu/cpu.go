// Package cpu implements the CPU backend on top of gonum's BLAS-backed matrices.
package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CPUBackend multiplies matrices with gonum.
type CPUBackend struct{}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// MatMul performs matrix multiplication.
// For 2D matrices: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *mat.Dense) (*mat.Dense, error) {
	m, k := a.Dims()
	kAlt, n := b.Dims()
	if k != kAlt {
		return nil, fmt.Errorf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n)
	}

	result := mat.NewDense(m, n, nil)
	result.Mul(a, b)
	return result, nil
}
