// Package mnist reads the MNIST handwritten digit dataset.
//
// Both the official IDX binary files (optionally gzip-compressed) and the
// Kaggle CSV layout are supported. Pixels are scaled from 0..255 to [0, 1].
package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/born-ml/digits/internal/tensor"
)

// IDX magic numbers.
const (
	MagicImages = 2051 // 0x00000803
	MagicLabels = 2049 // 0x00000801
)

// maxItems bounds the item count read from an IDX header.
const maxItems = 1 << 20

// ReadImages reads an IDX image file.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
func ReadImages(r io.Reader, limit int) ([][]float64, error) {
	var hdr struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if hdr.Magic != MagicImages {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", hdr.Magic, MagicImages)
	}
	if hdr.Rows != tensor.Side || hdr.Cols != tensor.Side {
		return nil, fmt.Errorf("unsupported image size %dx%d, want %dx%d", hdr.Rows, hdr.Cols, tensor.Side, tensor.Side)
	}
	if hdr.Count > maxItems {
		return nil, fmt.Errorf("image count %d exceeds max %d", hdr.Count, maxItems)
	}

	n := clamp(int(hdr.Count), limit)
	images := make([][]float64, n)
	buf := make([]byte, tensor.Pixels)
	for i := range images {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		images[i] = Scale(buf)
	}
	return images, nil
}

// ReadLabels reads an IDX label file.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadLabels(r io.Reader, limit int) ([]int, error) {
	var hdr struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if hdr.Magic != MagicLabels {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", hdr.Magic, MagicLabels)
	}
	if hdr.Count > maxItems {
		return nil, fmt.Errorf("label count %d exceeds max %d", hdr.Count, maxItems)
	}

	raw := make([]byte, clamp(int(hdr.Count), limit))
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	labels := make([]int, len(raw))
	for i, b := range raw {
		if b > 9 {
			return nil, fmt.Errorf("label %d out of range [0, 9]: %d", i, b)
		}
		labels[i] = int(b)
	}
	return labels, nil
}

// Scale maps 0..255 pixel bytes to [0, 1].
func Scale(raw []byte) []float64 {
	out := make([]float64, len(raw))
	for i, b := range raw {
		out[i] = float64(b) / 255
	}
	return out
}

// open opens path, transparently decompressing files ending in .gz.
func open(path string) (io.ReadCloser, error) {
	//nolint:gosec // G304: path comes from the operator
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &gzipFile{Reader: gz, file: file}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func clamp(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
