package tensor

import (
	"gonum.org/v1/gonum/mat"
)

// Image geometry of the classifier input.
const (
	Side   = 28          // Image height and width in pixels
	Pixels = Side * Side // Flattened image length (784)

	// FeatureWidth is the width of an assembled feature row:
	// bias + pixels + intensity + symmetry.
	FeatureWidth = Pixels + 3
)

// At returns pixel (row, col) of a row-major flattened image.
func At(img []float64, row, col int) float64 {
	return img[row*Side+col]
}

// DenseFromRows copies equally sized rows into a new dense matrix.
// The caller is responsible for checking that rows are not ragged.
func DenseFromRows(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data)
}

// ShapeOf reports the shape of a matrix.
func ShapeOf(m mat.Matrix) Shape {
	r, c := m.Dims()
	return Shape{r, c}
}

// PrependOnes returns a copy of m with a constant-1 column in front
// (bias augmentation).
func PrependOnes(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, 1)
		row := out.RawRowView(i)
		copy(row[1:], m.RawRowView(i))
	}
	return out
}
