package serialization

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/born-ml/digits/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// ReadJSON decodes a JSON list of 2-D arrays into weight matrices.
//
//	[[[w00, w01, ...], ...], [[...], ...]]
//
// Every matrix must be non-empty and rectangular.
func ReadJSON(r io.Reader) ([]*mat.Dense, error) {
	var raw [][][]float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse weights JSON: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoLayers
	}

	layers := make([]*mat.Dense, len(raw))
	for i, rows := range raw {
		name := fmt.Sprintf("layer.%d", i)
		if len(rows) == 0 || len(rows[0]) == 0 {
			return nil, &ValidationError{Type: "bad_shape", Layer: name, Details: "empty matrix"}
		}
		for j, row := range rows {
			if len(row) != len(rows[0]) {
				return nil, &ValidationError{
					Type:    "bad_shape",
					Layer:   name,
					Details: fmt.Sprintf("row %d has %d values, expected %d", j, len(row), len(rows[0])),
				}
			}
		}
		layers[i] = tensor.DenseFromRows(rows)
	}
	return layers, nil
}

// WriteJSON encodes layers as a JSON list of 2-D arrays.
func WriteJSON(w io.Writer, layers []*mat.Dense) error {
	raw := make([][][]float64, len(layers))
	for i, m := range layers {
		r, _ := m.Dims()
		raw[i] = make([][]float64, r)
		for j := 0; j < r; j++ {
			raw[i][j] = mat.Row(nil, j, m)
		}
	}
	if err := json.NewEncoder(w).Encode(raw); err != nil {
		return fmt.Errorf("failed to write weights JSON: %w", err)
	}
	return nil
}
