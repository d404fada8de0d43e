package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/born-ml/digits/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// CreatedBy is recorded in the header of every file this package writes.
const CreatedBy = "digits"

// WriteOptions configures how layers are stored.
type WriteOptions struct {
	DType    tensor.DataType   // Element type on disk; the zero value is float32
	Metadata map[string]string // Free-form key/value pairs, e.g. "source"
}

// Write encodes layers in forward order to w.
func Write(w io.Writer, layers []*mat.Dense, opts WriteOptions) error {
	if len(layers) == 0 {
		return ErrNoLayers
	}

	header := Header{
		FormatVersion: FormatVersion,
		CreatedBy:     CreatedBy,
		CreatedAt:     time.Now().UTC(),
		Layers:        make([]LayerMeta, 0, len(layers)),
		Metadata:      opts.Metadata,
	}

	var data bytes.Buffer
	for i, m := range layers {
		if m == nil || m.IsEmpty() {
			return fmt.Errorf("layer %d is empty", i)
		}
		rows, cols := m.Dims()
		encoded := tensor.EncodeFloats(mat.DenseCopyOf(m).RawMatrix().Data, opts.DType)

		header.Layers = append(header.Layers, LayerMeta{
			Name:   fmt.Sprintf("layer.%d", i),
			DType:  opts.DType.String(),
			Shape:  []int{rows, cols},
			Offset: int64(data.Len()),
			Size:   int64(len(encoded)),
		})
		data.Write(encoded)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	var flags uint32
	if len(opts.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	checksum := ComputeChecksum(data.Bytes())

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(data.Len()))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if pad := padding(int64(FixedHeaderSize + len(headerJSON))); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write layer data: %w", err)
	}

	return nil
}

// WriteFile writes layers to a .dgw file at path.
func WriteFile(path string, layers []*mat.Dense, opts WriteOptions) error {
	//nolint:gosec // G304: path comes from the operator
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, layers, opts); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// padding returns the zero bytes needed after pos to reach HeaderAlignment.
func padding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}
