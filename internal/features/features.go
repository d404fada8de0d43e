// Package features computes the scalar image features fed to the network
// next to the pixels: mean intensity and mirror symmetry.
package features

import (
	"fmt"
	"math"

	"github.com/born-ml/digits/internal/tensor"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Intensity returns the mean pixel value of every image (row) in the batch.
// The mean does not depend on pixel order, so any flattening works.
func Intensity(images *mat.Dense) []float64 {
	n, _ := images.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = ImageIntensity(images.RawRowView(i))
	}
	return out
}

// ImageIntensity returns the mean of img. An all-zero image yields 0.
func ImageIntensity(img []float64) float64 {
	if len(img) == 0 {
		return 0
	}
	return stat.Mean(img, nil)
}

// Symmetry returns, for every 28×28 image (row of 784 values) in the batch,
// the average of its vertical and horizontal asymmetry.
//
// Panics if rows are not 784 wide; callers validate the batch first.
func Symmetry(images *mat.Dense) []float64 {
	n, cols := images.Dims()
	if cols != tensor.Pixels {
		panic(fmt.Sprintf("symmetry: images must have %d columns, got %d", tensor.Pixels, cols))
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = ImageSymmetry(images.RawRowView(i))
	}
	return out
}

// ImageSymmetry computes (mean|img − flipud(img)| + mean|img − fliplr(img)|) / 2
// for one flattened 28×28 image. A perfectly symmetric image yields 0.
func ImageSymmetry(img []float64) float64 {
	if len(img) != tensor.Pixels {
		panic(fmt.Sprintf("symmetry: image must have %d pixels, got %d", tensor.Pixels, len(img)))
	}

	const last = tensor.Side - 1
	var vertical, horizontal float64
	for r := 0; r < tensor.Side; r++ {
		for c := 0; c < tensor.Side; c++ {
			v := tensor.At(img, r, c)
			vertical += math.Abs(v - tensor.At(img, last-r, c))
			horizontal += math.Abs(v - tensor.At(img, r, last-c))
		}
	}

	return (vertical/tensor.Pixels + horizontal/tensor.Pixels) / 2
}
