package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/born-ml/digits/internal/mnist"
)

// loadImage reads one image either from a JSON file or from an IDX file.
//
// A JSON file holds {"image": [784 floats]} (the /predict body) or a bare
// array. With idxPath set, image number index of that IDX file is used.
func loadImage(jsonPath, idxPath string, index int) ([]float64, error) {
	switch {
	case jsonPath != "" && idxPath != "":
		return nil, usageErrorf("-image and -idx are mutually exclusive")
	case jsonPath != "":
		return readImageJSON(jsonPath)
	case idxPath != "":
		if index < 0 {
			return nil, usageErrorf("-index must be >= 0")
		}
		//nolint:gosec // G304: path comes from the operator
		f, err := os.Open(idxPath)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()

		images, err := mnist.ReadImages(f, index+1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", idxPath, err)
		}
		if index >= len(images) {
			return nil, fmt.Errorf("%s holds %d images, no index %d", idxPath, len(images), index)
		}
		return images[index], nil
	default:
		return nil, usageErrorf("one of -image or -idx is required")
	}
}

func readImageJSON(path string) ([]float64, error) {
	//nolint:gosec // G304: path comes from the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pixels []float64
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &pixels)
	} else {
		var body struct {
			Image []float64 `json:"image"`
		}
		err = json.Unmarshal(data, &body)
		pixels = body.Image
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pixels, nil
}
