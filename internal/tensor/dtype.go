// Package tensor provides the matrix helpers shared by the digit classifier:
// image geometry, shapes, element types and byte codecs over gonum dense matrices.
package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataType represents the on-disk element type of a stored matrix.
type DataType int

// Supported data types for stored weights.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseDataType converts a string representation back to a DataType.
func ParseDataType(s string) (DataType, bool) {
	switch s {
	case "float32":
		return Float32, true
	case "float64":
		return Float64, true
	default:
		return 0, false
	}
}

// EncodeFloats writes values as little-endian dt elements.
func EncodeFloats(values []float64, dt DataType) []byte {
	out := make([]byte, len(values)*dt.Size())
	switch dt {
	case Float32:
		for i, v := range values {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
		}
	case Float64:
		for i, v := range values {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
		}
	default:
		panic(fmt.Sprintf("encode: unsupported dtype %s", dt))
	}
	return out
}

// DecodeFloats reads little-endian dt elements into float64 values.
func DecodeFloats(data []byte, dt DataType) ([]float64, error) {
	size := dt.Size()
	if len(data)%size != 0 {
		return nil, fmt.Errorf("decode: %d bytes is not a multiple of %s size %d", len(data), dt, size)
	}
	out := make([]float64, len(data)/size)
	switch dt {
	case Float32:
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	case Float64:
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	}
	return out, nil
}
