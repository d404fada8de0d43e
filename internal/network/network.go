// Package network runs the forward pass of a fully connected classifier.
//
// The layer count is data-driven: a network is just an ordered sequence of
// weight matrices. Hidden layers use the sigmoid activation followed by a
// prepended constant-1 (bias) column; the last layer uses a row-wise
// softmax. Weight matrices are never modified and may be shared between
// goroutines.
package network

import (
	"fmt"

	"github.com/born-ml/digits/internal/backend"
	"github.com/born-ml/digits/internal/backend/cpu"
	"github.com/born-ml/digits/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Output is the result of a forward pass.
//
// Classes and Probs are filled in every mode. Activations holds A0 (the
// input) through AL (the softmax output) and is only kept in ModeAll.
//
// Errs is set by callers that assemble the input: when non-nil it has one
// entry per row, and a non-nil entry marks a row whose input could not be
// fully prepared. Forward itself never sets it.
type Output struct {
	Mode        Mode
	Classes     []int
	Probs       *mat.Dense
	Activations []*mat.Dense
	Errs        []error
}

// Err returns the input error recorded for row i, if any.
func (o *Output) Err(i int) error {
	if o.Errs == nil {
		return nil
	}
	return o.Errs[i]
}

// Confidence returns the probability of the predicted class for every row.
func (o *Output) Confidence() []float64 {
	out := make([]float64, len(o.Classes))
	for i, c := range o.Classes {
		out[i] = o.Probs.At(i, c)
	}
	return out
}

// Network is a reusable forward pass over a fixed weight sequence.
type Network struct {
	weights []*mat.Dense
	backend backend.MatMuler
}

// Option configures a Network.
type Option func(*Network)

// WithBackend sets the matrix multiply backend. The default is the CPU backend.
func WithBackend(b backend.MatMuler) Option {
	return func(n *Network) {
		if b != nil {
			n.backend = b
		}
	}
}

// New creates a network over weights.
//
// The weight sequence must be non-empty and every matrix after the first
// must have one more row than its predecessor has columns.
func New(weights []*mat.Dense, opts ...Option) (*Network, error) {
	if err := CheckChain(weights, 0); err != nil {
		return nil, err
	}
	n := &Network{
		weights: weights,
		backend: cpu.New(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Layers returns the number of weight matrices.
func (n *Network) Layers() int {
	return len(n.weights)
}

// InputWidth returns the activation width the first layer expects.
func (n *Network) InputWidth() int {
	r, _ := n.weights[0].Dims()
	return r
}

// OutputWidth returns the number of classes.
func (n *Network) OutputWidth() int {
	_, c := n.weights[len(n.weights)-1].Dims()
	return c
}

// Backend returns the name of the matrix multiply backend.
func (n *Network) Backend() string {
	return n.backend.Name()
}

// Forward runs x (N rows of features, bias term included) through every layer.
func (n *Network) Forward(x *mat.Dense, mode Mode) (*Output, error) {
	if x == nil || x.IsEmpty() {
		return nil, &DimensionError{Layer: 0, Rows: n.InputWidth(), Want: 0}
	}
	if _, width := x.Dims(); width != n.InputWidth() {
		return nil, &DimensionError{Layer: 0, Rows: n.InputWidth(), Want: width}
	}

	out := &Output{Mode: mode}
	if mode == ModeAll {
		out.Activations = make([]*mat.Dense, 0, len(n.weights)+1)
		out.Activations = append(out.Activations, x)
	}

	a := x
	last := len(n.weights) - 1
	for i, w := range n.weights {
		z, err := n.backend.MatMul(a, w)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}

		if i == last {
			Softmax(z)
			a = z
		} else {
			Sigmoid(z)
			a = tensor.PrependOnes(z)
		}

		if mode == ModeAll {
			out.Activations = append(out.Activations, a)
		}
	}

	out.Probs = a
	out.Classes = Argmax(a)
	return out, nil
}

// Forward is a one-shot forward pass on the CPU backend.
func Forward(weights []*mat.Dense, x *mat.Dense, mode Mode) (*Output, error) {
	n, err := New(weights)
	if err != nil {
		return nil, err
	}
	return n.Forward(x, mode)
}

// CheckChain verifies that weights form a valid layer sequence.
//
// If inputWidth is positive the first matrix must have that many rows.
// Every later matrix must have one row more than the previous matrix has
// columns, accounting for the prepended bias column.
func CheckChain(weights []*mat.Dense, inputWidth int) error {
	if len(weights) == 0 {
		return errNoLayers
	}

	want := inputWidth
	for i, w := range weights {
		if w == nil || w.IsEmpty() {
			return &DimensionError{Layer: i, Rows: 0, Want: want}
		}
		rows, cols := w.Dims()
		if (i > 0 || want > 0) && rows != want {
			return &DimensionError{Layer: i, Rows: rows, Want: want}
		}
		want = cols + 1
	}
	return nil
}
