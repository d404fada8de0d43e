package network

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sigmoid applies 1/(1+e^(-z)) element-wise in place.
func Sigmoid(z *mat.Dense) {
	z.Apply(func(_, _ int, v float64) float64 {
		return 1 / (1 + math.Exp(-v))
	}, z)
}

// Softmax normalizes every row of z into a probability distribution, in place.
//
// The row maximum is subtracted before exponentiation so large logits do
// not overflow.
func Softmax(z *mat.Dense) {
	r, _ := z.Dims()
	for i := 0; i < r; i++ {
		row := z.RawRowView(i)
		maxVal := floats.Max(row)
		for j, v := range row {
			row[j] = math.Exp(v - maxVal)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
}

// Argmax returns the index of the largest value in every row.
// Ties resolve to the first maximal index.
func Argmax(m mat.RawMatrixer) []int {
	raw := m.RawMatrix()
	out := make([]int, raw.Rows)
	for i := range out {
		out[i] = floats.MaxIdx(raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols])
	}
	return out
}
