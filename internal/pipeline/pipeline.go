// Package pipeline turns raw pixel batches into network input rows.
//
// Each output row is laid out as
//
//	[1, deslanted pixels (784), intensity, symmetry]
//
// where intensity and symmetry are measured on the original, not the
// deslanted, pixels.
package pipeline

import (
	"fmt"

	"github.com/born-ml/digits/internal/deslant"
	"github.com/born-ml/digits/internal/features"
	"github.com/born-ml/digits/internal/parallel"
	"github.com/born-ml/digits/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Pipeline assembles feature rows. The zero value runs sequentially.
type Pipeline struct {
	Parallel parallel.Config
}

// New creates a pipeline that fans work out according to cfg.
func New(cfg parallel.Config) *Pipeline {
	return &Pipeline{Parallel: cfg}
}

// FromPixels builds an N×784 batch from per-image pixel slices.
// Every slice must hold exactly 784 values.
func FromPixels(images [][]float64) (*mat.Dense, error) {
	if len(images) == 0 {
		return nil, errEmptyBatch
	}
	for i, img := range images {
		if len(img) != tensor.Pixels {
			return nil, &ShapeError{Index: i, Got: len(img), Want: tensor.Pixels}
		}
	}
	return tensor.DenseFromRows(images), nil
}

// Preprocess returns the N×787 feature matrix for an N×784 image batch.
//
// A batch whose width is not 784 returns a *ShapeError before any work is
// done. Degenerate images do not stop the batch: the full matrix is still
// returned, with the original pixels in place of the deslanted ones for
// every failed row, together with the joined deslant errors. Use
// deslant.Failures to find the failed rows.
func (p *Pipeline) Preprocess(images *mat.Dense) (*mat.Dense, error) {
	if images == nil || images.IsEmpty() {
		return nil, errEmptyBatch
	}
	n, cols := images.Dims()
	if cols != tensor.Pixels {
		return nil, &ShapeError{Index: -1, Got: cols, Want: tensor.Pixels}
	}

	deslanted, deslantErr := deslant.Batch(images, p.Parallel)

	intensity := features.Intensity(images)
	symmetry := features.Symmetry(images)

	out := mat.NewDense(n, tensor.FeatureWidth, nil)
	for i := 0; i < n; i++ {
		row := out.RawRowView(i)
		row[0] = 1
		copy(row[1:1+tensor.Pixels], deslanted.RawRowView(i))
		row[tensor.Pixels+1] = intensity[i]
		row[tensor.Pixels+2] = symmetry[i]
	}

	if deslantErr != nil {
		return out, fmt.Errorf("deslant: %w", deslantErr)
	}
	return out, nil
}

// Preprocess runs a sequential Pipeline.
func Preprocess(images *mat.Dense) (*mat.Dense, error) {
	return (&Pipeline{}).Preprocess(images)
}
