// Package backend defines the compute backends used by the forward pass.
//
// The network only needs dense matrix multiplication from a backend;
// activations and bias augmentation stay on the CPU.
package backend

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrUnavailable is returned when a backend cannot be created on this host.
var ErrUnavailable = errors.New("backend not available")

// MatMuler multiplies dense matrices.
//
// Implementations must not modify their inputs and must be safe for
// concurrent use: one backend is shared by every in-flight request.
type MatMuler interface {
	// Name returns a human-readable backend name for logs.
	Name() string

	// MatMul returns a·b for a [M, K] and b [K, N].
	MatMul(a, b *mat.Dense) (*mat.Dense, error)
}

// Kind names a backend in configuration.
type Kind string

// Known backend kinds.
const (
	KindCPU    Kind = "cpu"
	KindWebGPU Kind = "webgpu"
)
