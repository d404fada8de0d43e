package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/digits/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize   = 16 * 1024 * 1024 // 16MB
	MaxLayerCount   = 1024
	MaxLayerNameLen = 256
)

// ValidateLayerOffsets checks for overlapping layer regions and out-of-bounds access.
func ValidateLayerOffsets(layers []LayerMeta, dataSize int64) error {
	if len(layers) > MaxLayerCount {
		return &ValidationError{
			Type:    "too_many_layers",
			Details: fmt.Sprintf("got %d, max %d", len(layers), MaxLayerCount),
		}
	}

	sorted := make([]LayerMeta, len(layers))
	copy(sorted, layers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, l := range sorted {
		if l.Offset < 0 || l.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Layer:   l.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", l.Offset, l.Size),
			}
		}

		if l.Offset+l.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Layer:   l.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", l.Offset, l.Size, dataSize),
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if l.Offset+l.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Layer:   l.Name,
					Layer2:  next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						l.Offset, l.Offset+l.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateLayerName rejects empty, oversized and control-character names.
func ValidateLayerName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Type: "invalid_name", Details: "empty layer name"}
	case len(name) > MaxLayerNameLen:
		return &ValidationError{
			Type:    "name_too_long",
			Layer:   name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxLayerNameLen),
		}
	case strings.ContainsAny(name, "\x00\n\r"):
		return &ValidationError{Type: "invalid_name", Layer: name, Details: "contains control character"}
	}
	return nil
}

// ValidateLayerMeta checks that a layer is a 2-D matrix of a known dtype
// whose byte size matches its shape and fits within MaxDataSize.
func ValidateLayerMeta(l LayerMeta) error {
	dt, ok := tensor.ParseDataType(l.DType)
	if !ok {
		return &ValidationError{Type: "bad_dtype", Layer: l.Name, Details: fmt.Sprintf("unsupported dtype %q", l.DType)}
	}
	rows, cols, err := tensor.Shape(l.Shape).Matrix2D()
	if err != nil {
		return &ValidationError{Type: "bad_shape", Layer: l.Name, Details: err.Error()}
	}
	if cols > MaxDataSize/dt.Size() || rows > MaxDataSize/(cols*dt.Size()) {
		return &ValidationError{
			Type:    "out_of_bounds",
			Layer:   l.Name,
			Details: fmt.Sprintf("shape %v of %s exceeds max data size %d", tensor.Shape(l.Shape), dt, MaxDataSize),
		}
	}
	if want := int64(rows * cols * dt.Size()); l.Size != want {
		return &ValidationError{
			Type:    "bad_size",
			Layer:   l.Name,
			Details: fmt.Sprintf("size %d does not match shape %v of %s (%d bytes)", l.Size, tensor.Shape(l.Shape), dt, want),
		}
	}
	return nil
}

// ValidateHeader runs every header check against a data section of dataSize bytes.
func ValidateHeader(h *Header, dataSize int64) error {
	if len(h.Layers) == 0 {
		return ErrNoLayers
	}
	for _, l := range h.Layers {
		if err := ValidateLayerName(l.Name); err != nil {
			return err
		}
		if err := ValidateLayerMeta(l); err != nil {
			return err
		}
	}
	return ValidateLayerOffsets(h.Layers, dataSize)
}
