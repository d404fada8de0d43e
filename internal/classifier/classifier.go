// Package classifier wires the feature pipeline to the network forward pass.
package classifier

import (
	"github.com/born-ml/digits/internal/deslant"
	"github.com/born-ml/digits/internal/network"
	"github.com/born-ml/digits/internal/parallel"
	"github.com/born-ml/digits/internal/pipeline"
	"gonum.org/v1/gonum/mat"
)

// Classifier runs images through a fixed network.
type Classifier struct {
	pipeline *pipeline.Pipeline
	network  *network.Network
}

// New creates a classifier over weights.
func New(weights []*mat.Dense, cfg parallel.Config, opts ...network.Option) (*Classifier, error) {
	n, err := network.New(weights, opts...)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		pipeline: pipeline.New(cfg),
		network:  n,
	}, nil
}

// Network returns the underlying forward pass.
func (c *Classifier) Network() *network.Network {
	return c.network
}

// Batch classifies every image of a batch of 784-value images.
// See Dense for how degenerate images are reported.
func (c *Classifier) Batch(images [][]float64, mode network.Mode) (*network.Output, error) {
	batch, err := pipeline.FromPixels(images)
	if err != nil {
		return nil, err
	}
	return c.Dense(batch, mode)
}

// Dense classifies an N×784 image matrix.
//
// If some images have degenerate geometry every row is still classified,
// failed rows from their original pixels. The output is returned together
// with the joined deslant error and Output.Errs marks the failed rows.
// Any other error returns a nil output.
func (c *Classifier) Dense(images *mat.Dense, mode network.Mode) (*network.Output, error) {
	x, prepErr := c.pipeline.Preprocess(images)
	if x == nil {
		return nil, prepErr
	}
	out, err := c.network.Forward(x, mode)
	if err != nil {
		return nil, err
	}
	if prepErr != nil {
		out.Errs = deslant.Failures(prepErr, len(out.Classes))
	}
	return out, prepErr
}

// One classifies a single 784-value image.
func (c *Classifier) One(pixels []float64, mode network.Mode) (*network.Output, error) {
	return c.Batch([][]float64{pixels}, mode)
}

// Classify returns the predicted digit for one image.
func Classify(pixels []float64, weights []*mat.Dense) (int, error) {
	out, err := ClassifyDetailed(pixels, weights, network.ModeClass)
	if err != nil {
		return 0, err
	}
	return out.Classes[0], nil
}

// ClassifyDetailed returns the full forward pass output for one image.
func ClassifyDetailed(pixels []float64, weights []*mat.Dense, mode network.Mode) (*network.Output, error) {
	return ClassifyBatch([][]float64{pixels}, weights, mode)
}

// ClassifyBatch classifies several images with a sequential pipeline.
// A degenerate image yields a partial result as described for Classifier.Dense.
func ClassifyBatch(images [][]float64, weights []*mat.Dense, mode network.Mode) (*network.Output, error) {
	c, err := New(weights, parallel.Config{})
	if err != nil {
		return nil, err
	}
	return c.Batch(images, mode)
}
