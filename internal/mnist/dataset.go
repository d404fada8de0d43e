package mnist

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/born-ml/digits/internal/tensor"
)

// Dataset holds images and their labels.
type Dataset struct {
	Images [][]float64 // [num_samples][784], values in [0, 1]
	Labels []int       // [num_samples]
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Images)
}

// LoadIDX loads an IDX image file and its label file. Files ending in
// .gz are decompressed. A positive limit caps the number of samples.
func LoadIDX(imagesPath, labelsPath string, limit int) (*Dataset, error) {
	images, err := readFile(imagesPath, func(r io.Reader) ([][]float64, error) {
		return ReadImages(r, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	labels, err := readFile(labelsPath, func(r io.Reader) ([]int, error) {
		return ReadLabels(r, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}

	if len(images) != len(labels) {
		return nil, fmt.Errorf("%d images but %d labels", len(images), len(labels))
	}
	return &Dataset{Images: images, Labels: labels}, nil
}

// ReadCSV reads the Kaggle CSV layout:
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
//
// The header row is skipped. A positive limit caps the number of samples.
func ReadCSV(r io.Reader, limit int) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = tensor.Pixels + 1
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	d := &Dataset{}
	for row := 1; limit <= 0 || d.Len() < limit; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid label at row %d: %w", row, err)
		}
		if label < 0 || label > 9 {
			return nil, fmt.Errorf("label out of range [0, 9] at row %d: %d", row, label)
		}

		raw := make([]byte, tensor.Pixels)
		for j := range raw {
			v, err := strconv.ParseUint(record[j+1], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid pixel %d at row %d: %w", j, row, err)
			}
			raw[j] = byte(v)
		}

		d.Images = append(d.Images, Scale(raw))
		d.Labels = append(d.Labels, label)
	}

	if d.Len() == 0 {
		return nil, fmt.Errorf("CSV has no samples")
	}
	return d, nil
}

// LoadCSV reads a Kaggle CSV file, decompressing .gz files.
func LoadCSV(path string, limit int) (*Dataset, error) {
	return readFile(path, func(r io.Reader) (*Dataset, error) {
		return ReadCSV(r, limit)
	})
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := open(path)
	if err != nil {
		return zero, err
	}
	defer func() { _ = rc.Close() }()

	v, err := read(rc)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
