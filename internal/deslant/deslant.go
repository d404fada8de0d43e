// Package deslant removes horizontal shear from handwritten digits.
//
// The slant is estimated from the ink mass (pixels brighter than 0.5):
// the correlation between the row and column coordinates of the ink,
// rescaled to pixel units, gives the tangent of the stroke angle. Each row
// is then shifted horizontally by an amount proportional to its distance
// from the ink centroid, using linear interpolation within the row.
package deslant

import (
	"errors"
	"fmt"

	"github.com/born-ml/digits/internal/parallel"
	"github.com/born-ml/digits/internal/tensor"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Threshold is the intensity above which a pixel counts as ink.
const Threshold = 0.5

// Slant describes the estimated shear of one image.
type Slant struct {
	Significant int     // Number of pixels above Threshold
	CenterRow   float64 // Mean row of the significant pixels
	CenterCol   float64 // Mean column of the significant pixels
	TanA        float64 // Horizontal shift per row of distance from CenterRow
}

// Upright reports whether applying the slant leaves the image unchanged.
func (s Slant) Upright() bool {
	return s.Significant == 0 || s.TanA == 0
}

// Estimate computes the slant of one flattened 28×28 image.
//
// An image without significant pixels, or with exactly one, has no
// measurable slant and returns TanA = 0. Two or more significant pixels
// sharing a single row or column return a *DegenerateGeometryError.
func Estimate(img []float64) (Slant, error) {
	if len(img) != tensor.Pixels {
		panic(fmt.Sprintf("deslant: image must have %d pixels, got %d", tensor.Pixels, len(img)))
	}

	rows, cols := significant(img)
	s := Slant{Significant: len(rows)}
	if len(rows) == 0 {
		return s, nil
	}

	var stdRow, stdCol float64
	s.CenterRow, stdRow = stat.PopMeanStdDev(rows, nil)
	s.CenterCol, stdCol = stat.PopMeanStdDev(cols, nil)
	if len(rows) == 1 {
		return s, nil
	}

	switch {
	case stdRow == 0:
		return s, &DegenerateGeometryError{Index: -1, Axis: "row", Significant: len(rows)}
	case stdCol == 0:
		return s, &DegenerateGeometryError{Index: -1, Axis: "col", Significant: len(rows)}
	}

	normRows := make([]float64, len(rows))
	normCols := make([]float64, len(cols))
	for i := range rows {
		normRows[i] = (rows[i] - s.CenterRow) / stdRow
		normCols[i] = (cols[i] - s.CenterCol) / stdCol
	}

	s.TanA = -stat.Correlation(normRows, normCols, nil) * stdCol / stdRow
	return s, nil
}

// Image returns a deslanted copy of one flattened 28×28 image.
// On error the returned slice is a copy of img.
func Image(img []float64) ([]float64, error) {
	out := make([]float64, tensor.Pixels)
	err := into(out, img)
	return out, err
}

// Batch deslants every image (row) of an N×784 batch and returns a new
// N×784 matrix; images is not modified.
//
// A degenerate image does not stop the batch: its row is copied through
// unchanged and the returned error joins one *DegenerateGeometryError per
// failed image, carrying its index.
func Batch(images *mat.Dense, cfg parallel.Config) (*mat.Dense, error) {
	n, cols := images.Dims()
	if cols != tensor.Pixels {
		panic(fmt.Sprintf("deslant: images must have %d columns, got %d", tensor.Pixels, cols))
	}

	out := mat.NewDense(n, cols, nil)
	err := parallel.ForErr(n, func(i int) error {
		err := into(out.RawRowView(i), images.RawRowView(i))
		var geomErr *DegenerateGeometryError
		if errors.As(err, &geomErr) {
			geomErr.Index = i
		}
		return err
	}, cfg)

	return out, err
}

// into writes the deslanted img into dst, or a plain copy if no correction applies.
func into(dst, img []float64) error {
	s, err := Estimate(img)
	if err != nil || s.Upright() {
		copy(dst, img)
		return err
	}
	apply(dst, img, s)
	return nil
}

// apply resamples every row of src along the column axis.
func apply(dst, src []float64, s Slant) {
	const last = tensor.Side - 1

	for row := 0; row < tensor.Side; row++ {
		shift := s.TanA * (s.CenterRow - float64(row))
		for col := 0; col < tensor.Side; col++ {
			ic := float64(col) + shift
			if ic < 0 {
				ic = 0
			}
			if ic > last {
				ic = last
			}
			down := int(ic) // ic >= 0, so truncation is floor
			up := min(down+1, last)
			frac := float64(up) - ic

			dst[row*tensor.Side+col] = frac*tensor.At(src, row, down) + (1-frac)*tensor.At(src, row, up)
		}
	}
}

// significant returns the row and column coordinates of pixels above Threshold,
// in row-major order.
func significant(img []float64) (rows, cols []float64) {
	for i, v := range img {
		if v > Threshold {
			rows = append(rows, float64(i/tensor.Side))
			cols = append(cols, float64(i%tensor.Side))
		}
	}
	return rows, cols
}
